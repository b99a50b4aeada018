package models

import "time"

// SessionStatus represents the lifecycle state of a symptom session
type SessionStatus string

// Predefined SessionStatus values. Completed and escalated are terminal,
// a session never transitions back to active.
const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionEscalated SessionStatus = "escalated"
)

// IsTerminal reports whether no further turns may be appended
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionEscalated
}

// Speaker identifies who authored a chat turn
type Speaker string

// Predefined Speaker values
const (
	SpeakerPatient   Speaker = "patient"
	SpeakerAssistant Speaker = "assistant"
	SpeakerSystem    Speaker = "system"
)

// ChatTurn is one entry in a session transcript. Turns are immutable once
// appended; ordering is append order. AudioRef and VideoRef are the
// exception: they are filled in after the fact when enrichment completes.
type ChatTurn struct {
	ID        string    `json:"_id" bson:"_id"`
	Speaker   Speaker   `json:"speaker" bson:"speaker"`
	Text      string    `json:"text" bson:"text"`
	ImageRefs []string  `json:"imageRefs,omitempty" bson:"imageRefs,omitempty"`
	AudioRef  string    `json:"audioRef,omitempty" bson:"audioRef,omitempty"`
	VideoRef  string    `json:"videoRef,omitempty" bson:"videoRef,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Session holds the structure for the session collection in mongo. It is the
// canonical record of one continuous patient-assistant conversation.
type Session struct {
	ID        string          `json:"_id" bson:"_id"`
	PatientID string          `json:"patientID" bson:"patientID"`
	Turns     []ChatTurn      `json:"turns" bson:"turns"`
	Urgency   Urgency         `json:"urgency" bson:"urgency"`
	Status    SessionStatus   `json:"status" bson:"status"`
	Entities  []MedicalEntity `json:"entities,omitempty" bson:"entities,omitempty"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// MedicalEntity is a symptom or condition mention extracted from patient text
type MedicalEntity struct {
	Text       string  `json:"text" bson:"text"`
	Category   string  `json:"category" bson:"category"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}
