package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEventWrapsPayload(t *testing.T) {
	evt, err := NewEvent(EventUrgentAlert, UrgentAlertPayload{Message: "critical symptoms", CaseID: "case-1"})
	assert.NoError(t, err)
	assert.Equal(t, EventUrgentAlert, evt.Type)
	assert.False(t, evt.Timestamp.IsZero())

	var p UrgentAlertPayload
	assert.NoError(t, json.Unmarshal(evt.Data, &p))
	assert.Equal(t, "case-1", p.CaseID)
}

func TestDecodeEventPayloadCoversEveryType(t *testing.T) {
	payloads := map[EventType]interface{}{
		EventCaseCreated:         CaseCreatedPayload{Case: Case{ID: "c1", Status: CasePending}},
		EventCaseUpdated:         CaseUpdatedPayload{CaseID: "c1"},
		EventVitalsSubmitted:     VitalsSubmittedPayload{PatientID: "p1"},
		EventNotification:        NotificationPayload{Notification: Notification{ID: "n1"}},
		EventUrgentAlert:         UrgentAlertPayload{CaseID: "c1"},
		EventConsultationStarted: ConsultationStartedPayload{CaseID: "c1"},
	}
	assert.Len(t, payloads, len(ValidEventTypes()))

	for _, typ := range ValidEventTypes() {
		evt, err := NewEvent(typ, payloads[typ])
		assert.NoError(t, err)

		decoded, err := DecodeEventPayload(evt)
		assert.NoError(t, err, "type %s", typ)
		assert.IsType(t, payloads[typ], decoded, "type %s", typ)
	}
}

func TestDecodeEventPayloadDecodedValuesRoundTrip(t *testing.T) {
	status := CaseInReview
	evt, err := NewEvent(EventCaseUpdated, CaseUpdatedPayload{
		CaseID:  "case-9",
		Updates: CaseUpdate{Status: &status},
	})
	assert.NoError(t, err)

	decoded, err := DecodeEventPayload(evt)
	assert.NoError(t, err)

	p, ok := decoded.(CaseUpdatedPayload)
	assert.True(t, ok)
	assert.Equal(t, "case-9", p.CaseID)
	assert.Equal(t, CaseInReview, *p.Updates.Status)
}

func TestDecodeEventPayloadRejectsUnknownType(t *testing.T) {
	evt := Event{Type: EventType("made-up"), Data: json.RawMessage(`{}`)}
	_, err := DecodeEventPayload(evt)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "made-up")
}

func TestEventTypeIsValid(t *testing.T) {
	for _, typ := range ValidEventTypes() {
		assert.True(t, typ.IsValid())
	}
	assert.False(t, EventType("bogus").IsValid())
	assert.False(t, EventType("").IsValid())
}
