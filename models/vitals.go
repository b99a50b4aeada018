package models

import "time"

// BloodPressure is a systolic/diastolic pair in mmHg
type BloodPressure struct {
	Systolic  int `json:"systolic" bson:"systolic"`
	Diastolic int `json:"diastolic" bson:"diastolic"`
}

// VitalsReadings holds the measured values of one vitals submission. Zero
// values mean the health worker did not capture that reading.
type VitalsReadings struct {
	HeartRate        int            `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	BloodPressure    *BloodPressure `json:"bloodPressure,omitempty" bson:"bloodPressure,omitempty"`
	OxygenSaturation int            `json:"oxygenSaturation,omitempty" bson:"oxygenSaturation,omitempty"`
	Temperature      float64        `json:"temperature,omitempty" bson:"temperature,omitempty"`
	RespiratoryRate  int            `json:"respiratoryRate,omitempty" bson:"respiratoryRate,omitempty"`
	Weight           float64        `json:"weight,omitempty" bson:"weight,omitempty"`
	Height           float64        `json:"height,omitempty" bson:"height,omitempty"`
}

// VitalsEntry holds the structure for the vitals collection in mongo. Health
// workers submit these from the field for a patient they are attending.
type VitalsEntry struct {
	ID             string         `json:"_id" bson:"_id"`
	SessionID      string         `json:"sessionID,omitempty" bson:"sessionID,omitempty"`
	PatientID      string         `json:"patientID" bson:"patientID"`
	HealthWorkerID string         `json:"healthWorkerID" bson:"healthWorkerID"`
	Vitals         VitalsReadings `json:"vitals" bson:"vitals"`
	ImageRefs      []string       `json:"imageRefs,omitempty" bson:"imageRefs,omitempty"`
	Notes          string         `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdAt"`
}

// Abnormal reports whether any captured reading falls outside the ranges
// that should raise a high-priority notification for the doctor queue.
func (v VitalsReadings) Abnormal() bool {
	if v.HeartRate != 0 && (v.HeartRate < 40 || v.HeartRate > 130) {
		return true
	}
	if v.OxygenSaturation != 0 && v.OxygenSaturation < 92 {
		return true
	}
	if v.Temperature != 0 && v.Temperature >= 39.0 {
		return true
	}
	if v.BloodPressure != nil && (v.BloodPressure.Systolic >= 180 || v.BloodPressure.Diastolic >= 120) {
		return true
	}
	return false
}
