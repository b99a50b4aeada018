package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType discriminates the push events carried over the realtime channel
type EventType string

// The fixed set of event types. Adding a type here forces DecodeEventPayload
// and every dispatch switch to be extended before the code compiles cleanly.
const (
	EventCaseCreated         EventType = "case-created"
	EventCaseUpdated         EventType = "case-updated"
	EventVitalsSubmitted     EventType = "vitals-submitted"
	EventNotification        EventType = "notification"
	EventUrgentAlert         EventType = "urgent-alert"
	EventConsultationStarted EventType = "consultation-started"
)

// ValidEventTypes returns all valid EventType values
func ValidEventTypes() []EventType {
	return []EventType{
		EventCaseCreated,
		EventCaseUpdated,
		EventVitalsSubmitted,
		EventNotification,
		EventUrgentAlert,
		EventConsultationStarted,
	}
}

// IsValid checks if the EventType value is one of the predefined constants
func (t EventType) IsValid() bool {
	for _, validType := range ValidEventTypes() {
		if t == validType {
			return true
		}
	}
	return false
}

// Event is the wire envelope for one push event
type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// CaseCreatedPayload carries a newly created case
type CaseCreatedPayload struct {
	Case Case `json:"case"`
}

// CaseUpdatedPayload carries a partial update to an existing case
type CaseUpdatedPayload struct {
	CaseID  string     `json:"caseId"`
	Updates CaseUpdate `json:"updates"`
}

// VitalsSubmittedPayload carries a field vitals submission
type VitalsSubmittedPayload struct {
	Vitals    VitalsEntry `json:"vitals"`
	PatientID string      `json:"patientId"`
}

// NotificationPayload carries a notification for the receiving user's queue
type NotificationPayload struct {
	Notification Notification `json:"notification"`
}

// UrgentAlertPayload carries a critical-case broadcast
type UrgentAlertPayload struct {
	Message string `json:"message"`
	CaseID  string `json:"caseId"`
}

// ConsultationStartedPayload announces a video consultation for a case
type ConsultationStartedPayload struct {
	CaseID string `json:"caseId"`
}

// NewEvent wraps a typed payload into the wire envelope
func NewEvent(t EventType, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Event{Type: t, Data: data, Timestamp: time.Now().UTC()}, nil
}

// DecodeEventPayload decodes the data of an event into its typed payload.
// The switch is exhaustive over EventType; an unknown type is an error, not
// an untyped map.
func DecodeEventPayload(e Event) (interface{}, error) {
	switch e.Type {
	case EventCaseCreated:
		var p CaseCreatedPayload
		err := json.Unmarshal(e.Data, &p)
		return p, err
	case EventCaseUpdated:
		var p CaseUpdatedPayload
		err := json.Unmarshal(e.Data, &p)
		return p, err
	case EventVitalsSubmitted:
		var p VitalsSubmittedPayload
		err := json.Unmarshal(e.Data, &p)
		return p, err
	case EventNotification:
		var p NotificationPayload
		err := json.Unmarshal(e.Data, &p)
		return p, err
	case EventUrgentAlert:
		var p UrgentAlertPayload
		err := json.Unmarshal(e.Data, &p)
		return p, err
	case EventConsultationStarted:
		var p ConsultationStartedPayload
		err := json.Unmarshal(e.Data, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown event type %q", e.Type)
}
