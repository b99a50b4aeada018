package ai

import (
	"strings"

	"github.com/virtudoc/virtudoc-engine/models"
)

// urgencyRule binds one severity level to the phrases that trigger it
type urgencyRule struct {
	level    models.Urgency
	keywords []string
}

// urgencyRules is evaluated most severe first; the first matching rule wins.
// A message containing both a high and a critical phrase resolves to
// critical. The precedence lives in this table, not in control flow, so
// extending a level is a data change.
var urgencyRules = []urgencyRule{
	{
		level: models.UrgencyCritical,
		keywords: []string{
			"chest pain", "difficulty breathing", "can't breathe", "cannot breathe",
			"severe pain", "unconscious", "emergency", "call 911",
			"call emergency services", "immediate medical attention", "life-threatening",
		},
	},
	{
		level: models.UrgencyHigh,
		keywords: []string{
			"fever", "vomiting", "severe headache", "dizziness",
			"shortness of breath", "see a doctor soon", "medical attention", "concerning",
		},
	},
	{
		level: models.UrgencyMedium,
		keywords: []string{
			"headache", "nausea", "fatigue", "cough", "monitor", "watch",
		},
	},
}

// ClassifyUrgency computes the urgency of a turn from the assistant's reply
// and the patient's raw input. It is a pure function; which provider produced
// the reply makes no difference. Low is the default when nothing matches.
func ClassifyUrgency(reply, userText string) models.Urgency {
	lowerReply := strings.ToLower(reply)
	lowerText := strings.ToLower(userText)

	for _, rule := range urgencyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerReply, kw) || strings.Contains(lowerText, kw) {
				return rule.level
			}
		}
	}
	return models.UrgencyLow
}
