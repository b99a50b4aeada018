package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVitalsAbnormalFlagsOutOfRangeReadings(t *testing.T) {
	assert.True(t, VitalsReadings{HeartRate: 150}.Abnormal())
	assert.True(t, VitalsReadings{HeartRate: 35}.Abnormal())
	assert.True(t, VitalsReadings{OxygenSaturation: 88}.Abnormal())
	assert.True(t, VitalsReadings{Temperature: 39.5}.Abnormal())
	assert.True(t, VitalsReadings{BloodPressure: &BloodPressure{Systolic: 185, Diastolic: 90}}.Abnormal())
	assert.True(t, VitalsReadings{BloodPressure: &BloodPressure{Systolic: 140, Diastolic: 125}}.Abnormal())
}

func TestVitalsAbnormalAcceptsNormalReadings(t *testing.T) {
	v := VitalsReadings{
		HeartRate:        72,
		OxygenSaturation: 98,
		Temperature:      36.8,
		BloodPressure:    &BloodPressure{Systolic: 120, Diastolic: 80},
		RespiratoryRate:  16,
	}
	assert.False(t, v.Abnormal())
}

func TestVitalsAbnormalIgnoresMissingReadings(t *testing.T) {
	// zero values mean the reading was not captured, not that it is zero
	assert.False(t, VitalsReadings{}.Abnormal())
	assert.False(t, VitalsReadings{Weight: 70, Height: 1.8}.Abnormal())
}
