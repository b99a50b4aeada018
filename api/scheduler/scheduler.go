package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/session"
	templates "github.com/virtudoc/virtudoc-engine/templates/html"
)

// Stale sessions are completed after this much idle time
const sessionIdleTimeout = 2 * time.Hour

// Critical cases unassigned for longer than this trigger an on-call email
const criticalAlertWindow = 15 * time.Minute

// Scheduler handles the periodic maintenance jobs: closing idle sessions,
// pruning expired notifications and re-alerting unattended critical cases.
type Scheduler struct {
	cron       *cron.Cron
	Aggregator *session.Aggregator
	CaseDB     databases.CaseDatabase
	NotifDB    databases.NotificationDatabase
	Pub        session.Publisher
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(agg *session.Aggregator, caseDB databases.CaseDatabase, notifDB databases.NotificationDatabase, pub session.Publisher) *Scheduler {
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Aggregator: agg,
		CaseDB:     caseDB,
		NotifDB:    notifDB,
		Pub:        pub,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Close idle sessions every 30 minutes
	_, err := s.cron.AddFunc("*/30 * * * *", s.closeStaleSessions)
	if err != nil {
		zap.S().Errorw("failed to register stale session job", "error", err)
	}

	// Prune expired notifications daily at 4 AM UTC
	_, err = s.cron.AddFunc("0 4 * * *", s.pruneExpiredNotifications)
	if err != nil {
		zap.S().Errorw("failed to register notification prune job", "error", err)
	}

	// Re-alert unattended critical cases every 15 minutes
	_, err = s.cron.AddFunc("*/15 * * * *", s.alertUnattendedCriticalCases)
	if err != nil {
		zap.S().Errorw("failed to register critical case alert job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Maintenance scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Maintenance scheduler stopped")
}

func (s *Scheduler) closeStaleSessions() {
	closed := s.Aggregator.CloseStaleSessions(sessionIdleTimeout)
	if closed > 0 {
		zap.S().Infow("Closed stale sessions", "count", closed, "instance", s.instanceID)
	}
}

func (s *Scheduler) pruneExpiredNotifications() {
	if s.NotifDB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	filter := bson.M{"expiresAt": bson.M{"$ne": nil, "$lt": time.Now().UTC()}}
	deleted, err := s.NotifDB.DeleteMany(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to prune expired notifications", "error", err)
		return
	}
	zap.S().Infow("Pruned expired notifications", "count", deleted, "instance", s.instanceID)
}

// alertUnattendedCriticalCases finds critical cases still waiting for a doctor
// past the alert window, re-broadcasts the urgent alert and emails the
// on-call address.
func (s *Scheduler) alertUnattendedCriticalCases() {
	if s.CaseDB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-criticalAlertWindow)
	filter := bson.M{
		"status":           models.CasePending,
		"priority":         models.UrgencyCritical,
		"assignedDoctorID": bson.M{"$in": []interface{}{nil, ""}},
		"createdAt":        bson.M{"$lt": cutoff},
	}

	cases, err := s.CaseDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find unattended critical cases", "error", err)
		return
	}

	for _, c := range cases {
		payload := models.UrgentAlertPayload{
			Message: fmt.Sprintf("Critical case %s is still waiting for a doctor", c.ID),
			CaseID:  c.ID,
		}
		if evt, err := models.NewEvent(models.EventUrgentAlert, payload); err == nil {
			s.Pub.BroadcastToRole(models.RoleDoctor, evt)
		}
		s.sendOnCallEmail(c)
	}

	if len(cases) > 0 {
		zap.S().Warnw("Re-alerted unattended critical cases", "count", len(cases), "instance", s.instanceID)
	}
}

func (s *Scheduler) sendOnCallEmail(c models.Case) {
	onCall := os.Getenv("ONCALL_EMAIL")
	if onCall == "" {
		return
	}

	minutes := int(time.Since(c.CreatedAt).Minutes())
	subject := "Critical case needs attention"
	htmlContent := templates.RenderUnattendedCriticalCaseEmail(c.ID, c.PatientID, minutes)
	plainText := fmt.Sprintf("Critical case %s for patient %s has been unassigned for %d minutes.", c.ID, c.PatientID, minutes)

	if err := s.sendEmail(onCall, "On-call doctor", subject, htmlContent, plainText); err != nil {
		zap.S().Errorw("failed to send on-call email", "error", err, "caseID", c.ID)
	}
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("VirtuDoc Alerts", "no-reply@virtudoc.health")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
