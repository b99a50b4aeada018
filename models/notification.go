package models

import "time"

// Role identifies which dashboard a user belongs to
type Role string

// Predefined Role values
const (
	RolePatient      Role = "patient"
	RoleHealthWorker Role = "healthworker"
	RoleDoctor       Role = "doctor"
)

// ValidRoles returns all valid Role values
func ValidRoles() []Role {
	return []Role{RolePatient, RoleHealthWorker, RoleDoctor}
}

// IsValid checks if the Role value is one of the predefined constants
func (r Role) IsValid() bool {
	for _, validRole := range ValidRoles() {
		if r == validRole {
			return true
		}
	}
	return false
}

// NotificationType categorizes why a notification was raised
type NotificationType string

// Predefined NotificationType values
const (
	NotificationCaseAssigned          NotificationType = "case-assigned"
	NotificationUrgentCase            NotificationType = "urgent-case"
	NotificationConsultationScheduled NotificationType = "consultation-scheduled"
	NotificationSystemAlert           NotificationType = "system-alert"
)

// Notification holds the structure for the notification collection in mongo.
// Once created only the Read flag may change; entries are removed only by an
// explicit clear or by expiry.
type Notification struct {
	ID           string           `json:"_id" bson:"_id"`
	TargetUserID string           `json:"targetUserID,omitempty" bson:"targetUserID,omitempty"`
	TargetRole   Role             `json:"targetRole,omitempty" bson:"targetRole,omitempty"`
	Type         NotificationType `json:"type" bson:"type"`
	Title        string           `json:"title" bson:"title"`
	Message      string           `json:"message" bson:"message"`
	Priority     Urgency          `json:"priority" bson:"priority"`
	Read         bool             `json:"read" bson:"read"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	ExpiresAt    *time.Time       `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
}
