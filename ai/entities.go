package ai

import (
	"strings"

	"github.com/virtudoc/virtudoc-engine/models"
)

// symptomKeywords is the fixed vocabulary for lightweight entity extraction.
// A dedicated medical NLP service would replace this table wholesale.
var symptomKeywords = []string{
	"headache", "fever", "cough", "nausea", "vomiting",
	"pain", "fatigue", "dizziness", "rash",
}

// ExtractEntities scans patient text for known symptom mentions and returns
// them as medical entities. Duplicate mentions collapse to one entity.
func ExtractEntities(text string) []models.MedicalEntity {
	lower := strings.ToLower(text)
	var entities []models.MedicalEntity
	for _, symptom := range symptomKeywords {
		if strings.Contains(lower, symptom) {
			entities = append(entities, models.MedicalEntity{
				Text:       symptom,
				Category:   "SYMPTOM",
				Confidence: 0.8,
			})
		}
	}
	return entities
}
