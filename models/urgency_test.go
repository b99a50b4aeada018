package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUrgencyRankOrdering(t *testing.T) {
	assert.Less(t, UrgencyLow.Rank(), UrgencyMedium.Rank())
	assert.Less(t, UrgencyMedium.Rank(), UrgencyHigh.Rank())
	assert.Less(t, UrgencyHigh.Rank(), UrgencyCritical.Rank())
	assert.Equal(t, 0, Urgency("bogus").Rank())
}

func TestMaxUrgencyNeverDowngrades(t *testing.T) {
	assert.Equal(t, UrgencyHigh, MaxUrgency(UrgencyHigh, UrgencyLow))
	assert.Equal(t, UrgencyHigh, MaxUrgency(UrgencyLow, UrgencyHigh))
	assert.Equal(t, UrgencyCritical, MaxUrgency(UrgencyCritical, UrgencyCritical))
	// an unknown value loses to any known one
	assert.Equal(t, UrgencyLow, MaxUrgency(UrgencyLow, Urgency("bogus")))
}

func TestUrgencyIsValid(t *testing.T) {
	for _, u := range ValidUrgencies() {
		assert.True(t, u.IsValid())
	}
	assert.False(t, Urgency("severe").IsValid())
}

func TestSessionStatusIsTerminal(t *testing.T) {
	assert.False(t, SessionActive.IsTerminal())
	assert.True(t, SessionCompleted.IsTerminal())
	assert.True(t, SessionEscalated.IsTerminal())
}

func TestCaseStatusIsActive(t *testing.T) {
	assert.True(t, CasePending.IsActive())
	assert.True(t, CaseInReview.IsActive())
	assert.True(t, CaseEscalated.IsActive())
	assert.False(t, CaseClosed.IsActive())
}
