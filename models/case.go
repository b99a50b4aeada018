package models

import "time"

// CaseStatus represents the review state of a case
type CaseStatus string

// Predefined CaseStatus values
const (
	CasePending   CaseStatus = "pending"
	CaseInReview  CaseStatus = "in-review"
	CaseEscalated CaseStatus = "escalated"
	CaseClosed    CaseStatus = "closed"
)

// IsActive reports whether the case still needs human attention
func (s CaseStatus) IsActive() bool {
	return s == CasePending || s == CaseInReview || s == CaseEscalated
}

// Case holds the structure for the case collection in mongo. A case is the
// human-facing work item created from a session once it needs worker or
// doctor follow-up.
type Case struct {
	ID               string     `json:"_id" bson:"_id"`
	SessionID        string     `json:"sessionID" bson:"sessionID"`
	PatientID        string     `json:"patientID" bson:"patientID"`
	AssignedWorkerID string     `json:"assignedWorkerID,omitempty" bson:"assignedWorkerID,omitempty"`
	AssignedDoctorID string     `json:"assignedDoctorID,omitempty" bson:"assignedDoctorID,omitempty"`
	Status           CaseStatus `json:"status" bson:"status"`
	Priority         Urgency    `json:"priority" bson:"priority"`
	Summary          string     `json:"summary" bson:"summary"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// CaseUpdate carries the mutable fields of a case-updated event
type CaseUpdate struct {
	Status           *CaseStatus `json:"status,omitempty" bson:"status,omitempty"`
	AssignedWorkerID *string     `json:"assignedWorkerID,omitempty" bson:"assignedWorkerID,omitempty"`
	AssignedDoctorID *string     `json:"assignedDoctorID,omitempty" bson:"assignedDoctorID,omitempty"`
	Priority         *Urgency    `json:"priority,omitempty" bson:"priority,omitempty"`
}
