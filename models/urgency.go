package models

// Urgency represents the ordinal triage classification of a session
type Urgency string

// Predefined Urgency values, least to most severe
const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// ValidUrgencies returns all valid Urgency values
func ValidUrgencies() []Urgency {
	return []Urgency{
		UrgencyLow,
		UrgencyMedium,
		UrgencyHigh,
		UrgencyCritical,
	}
}

// IsValid checks if the Urgency value is one of the predefined constants
func (u Urgency) IsValid() bool {
	for _, validUrgency := range ValidUrgencies() {
		if u == validUrgency {
			return true
		}
	}
	return false
}

// Rank returns the ordinal position of the urgency, higher is more severe.
// Unknown values rank below low so they never win a MaxUrgency comparison.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyCritical:
		return 4
	}
	return 0
}

// String returns the string representation of the Urgency
func (u Urgency) String() string {
	return string(u)
}

// MaxUrgency returns the more severe of the two urgencies. Session urgency is
// monotonic: a session is never downgraded while active.
func MaxUrgency(a, b Urgency) Urgency {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
