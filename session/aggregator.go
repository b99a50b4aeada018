// Package session owns the lifecycle of patient symptom sessions: it appends
// turns, drives the AI orchestrator, escalates sessions into cases and fans
// the resulting events out to the dashboards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/ai"
	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/metrics"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/store"
)

// ErrSessionClosed is returned when a turn is submitted to a session that has
// already reached a terminal status.
var ErrSessionClosed = errors.New("session is closed")

// ErrSessionNotFound is returned when the session id is unknown
var ErrSessionNotFound = errors.New("session not found")

// Responder is the slice of the orchestrator the aggregator needs
type Responder interface {
	Respond(ctx context.Context, req ai.Request) ai.Reply
	Enrich(ctx context.Context, text string, apply func(ai.Enrichment))
}

// Publisher pushes events to connected dashboard users. *realtime.Hub
// satisfies it.
type Publisher interface {
	SendToUser(userID string, evt models.Event)
	BroadcastToRole(role models.Role, evt models.Event)
	Broadcast(evt models.Event)
}

// sessionState is the canonical in-memory record for one session. gen is the
// generation token: it is bumped when the session closes, and enrichment
// results carrying an older token are discarded instead of applied.
type sessionState struct {
	sess   models.Session
	gen    int
	caseID string
}

// Aggregator coordinates one conversation per patient. All mutation of a
// given patient's session happens under that patient's mutex, so two
// concurrent submits for the same patient are strictly ordered.
type Aggregator struct {
	responder Responder
	store     *store.Store
	pub       Publisher
	metrics   *metrics.Metrics

	sessionDB      databases.SessionDatabase
	caseDB         databases.CaseDatabase
	notificationDB databases.NotificationDatabase

	mu         sync.Mutex
	sessions   map[string]*sessionState
	byPatient  map[string]string
	patientMus map[string]*sync.Mutex
}

// New creates an aggregator. The database handles may be nil, in which case
// sessions live only in memory.
func New(responder Responder, st *store.Store, pub Publisher, m *metrics.Metrics,
	sessionDB databases.SessionDatabase, caseDB databases.CaseDatabase, notificationDB databases.NotificationDatabase) *Aggregator {
	return &Aggregator{
		responder:      responder,
		store:          st,
		pub:            pub,
		metrics:        m,
		sessionDB:      sessionDB,
		caseDB:         caseDB,
		notificationDB: notificationDB,
		sessions:       make(map[string]*sessionState),
		byPatient:      make(map[string]string),
		patientMus:     make(map[string]*sync.Mutex),
	}
}

// SubmitUserTurn appends one patient turn to the patient's active session
// (creating the session if none is active), produces the assistant turn and
// applies the escalation rules. The returned session is a snapshot taken
// after both turns were appended; audio/video enrichment lands later.
func (a *Aggregator) SubmitUserTurn(ctx context.Context, patientID, text string, imageRefs []string) (models.Session, error) {
	if patientID == "" {
		return models.Session{}, errors.New("patientID is required")
	}

	pmu := a.patientMutex(patientID)
	pmu.Lock()
	defer pmu.Unlock()

	st, err := a.activeSession(patientID)
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now().UTC()
	userTurn := models.ChatTurn{
		ID:        uuid.New().String(),
		Speaker:   models.SpeakerPatient,
		Text:      text,
		ImageRefs: imageRefs,
		CreatedAt: now,
	}

	req := ai.Request{
		History:   append([]models.ChatTurn(nil), st.sess.Turns...),
		Text:      text,
		HasImages: len(imageRefs) > 0,
	}

	start := time.Now()
	reply := a.responder.Respond(ctx, req)
	a.metrics.TurnDuration.Observe(time.Since(start).Seconds())
	a.metrics.TurnsProcessed.WithLabelValues(reply.Provider).Inc()
	if reply.Provider == "template" {
		a.metrics.ProviderFallbacks.Inc()
	}

	assistantTurn := models.ChatTurn{
		ID:        uuid.New().String(),
		Speaker:   models.SpeakerAssistant,
		Text:      reply.Text,
		CreatedAt: time.Now().UTC(),
	}

	a.mu.Lock()
	st.sess.Turns = append(st.sess.Turns, userTurn, assistantTurn)
	st.sess.Urgency = models.MaxUrgency(st.sess.Urgency, reply.Urgency)
	st.sess.Entities = append(st.sess.Entities, reply.Entities...)
	st.sess.UpdatedAt = time.Now().UTC()
	snapshot := cloneSession(st.sess)
	gen := st.gen
	a.mu.Unlock()

	a.store.UpsertSession(snapshot)
	a.persistSession(snapshot)

	a.escalate(st, snapshot)

	// Enrichment outlives the submit request: the caller's context is
	// cancelled as soon as the HTTP handler returns, long before TTS or
	// video rendering completes, so the enrichment calls must not inherit
	// its cancellation.
	enrichCtx := context.WithoutCancel(ctx)
	a.responder.Enrich(enrichCtx, reply.Text, func(e ai.Enrichment) {
		a.applyEnrichment(st.sess.ID, assistantTurn.ID, gen, e)
	})

	return snapshot, nil
}

// CloseSession moves an active session to a terminal status. Enrichment
// results still in flight are discarded from here on.
func (a *Aggregator) CloseSession(sessionID string, final models.SessionStatus) (models.Session, error) {
	if !final.IsTerminal() {
		return models.Session{}, fmt.Errorf("status %q is not terminal", final)
	}

	a.mu.Lock()
	st, ok := a.sessions[sessionID]
	if !ok {
		a.mu.Unlock()
		return models.Session{}, ErrSessionNotFound
	}
	if st.sess.Status.IsTerminal() {
		a.mu.Unlock()
		return models.Session{}, ErrSessionClosed
	}
	st.sess.Status = final
	st.sess.UpdatedAt = time.Now().UTC()
	st.gen++
	delete(a.byPatient, st.sess.PatientID)
	snapshot := cloneSession(st.sess)
	a.mu.Unlock()

	a.store.UpsertSession(snapshot)
	a.persistSession(snapshot)
	zap.S().Infow("session closed", "sessionID", sessionID, "status", final)
	return snapshot, nil
}

// CloseStaleSessions completes every active session that has been idle longer
// than maxIdle. Returns the number of sessions closed.
func (a *Aggregator) CloseStaleSessions(maxIdle time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxIdle)

	a.mu.Lock()
	var stale []string
	for id, st := range a.sessions {
		if st.sess.Status == models.SessionActive && st.sess.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	a.mu.Unlock()

	for _, id := range stale {
		if _, err := a.CloseSession(id, models.SessionCompleted); err != nil {
			zap.S().Warnw("failed to close stale session", "sessionID", id, "error", err)
		}
	}
	return len(stale)
}

// Session returns a snapshot of one session
func (a *Aggregator) Session(sessionID string) (models.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.sessions[sessionID]
	if !ok {
		return models.Session{}, false
	}
	return cloneSession(st.sess), true
}

// activeSession finds the patient's active session or creates one
func (a *Aggregator) activeSession(patientID string) (*sessionState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.byPatient[patientID]; ok {
		st := a.sessions[id]
		if st.sess.Status.IsTerminal() {
			return nil, ErrSessionClosed
		}
		return st, nil
	}

	now := time.Now().UTC()
	st := &sessionState{
		sess: models.Session{
			ID:        uuid.New().String(),
			PatientID: patientID,
			Urgency:   models.UrgencyLow,
			Status:    models.SessionActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	a.sessions[st.sess.ID] = st
	a.byPatient[patientID] = st.sess.ID
	zap.S().Infow("session started", "sessionID", st.sess.ID, "patientID", patientID)
	return st, nil
}

// escalate applies the case rules for the session's current urgency: a case
// is opened once the session reaches medium, its priority follows further
// urgency increases, and critical sessions additionally raise an urgent
// broadcast to doctors.
func (a *Aggregator) escalate(st *sessionState, snapshot models.Session) {
	if snapshot.Urgency.Rank() < models.UrgencyMedium.Rank() {
		return
	}

	a.mu.Lock()
	caseID := st.caseID
	a.mu.Unlock()

	if caseID == "" {
		a.openCase(st, snapshot)
		return
	}

	existing, ok := a.store.Case(caseID)
	if ok && snapshot.Urgency.Rank() > existing.Priority.Rank() {
		priority := snapshot.Urgency
		update := models.CaseUpdate{Priority: &priority}
		a.store.ApplyCaseUpdate(caseID, update)
		a.persistCaseUpdate(caseID, update)
		if evt, err := models.NewEvent(models.EventCaseUpdated, models.CaseUpdatedPayload{CaseID: caseID, Updates: update}); err == nil {
			a.pub.BroadcastToRole(models.RoleHealthWorker, evt)
			a.pub.BroadcastToRole(models.RoleDoctor, evt)
		}
		if snapshot.Urgency == models.UrgencyCritical {
			a.raiseUrgentAlert(caseID, snapshot)
		}
	}
}

func (a *Aggregator) openCase(st *sessionState, snapshot models.Session) {
	now := time.Now().UTC()
	c := models.Case{
		ID:        uuid.New().String(),
		SessionID: snapshot.ID,
		PatientID: snapshot.PatientID,
		Status:    models.CasePending,
		Priority:  snapshot.Urgency,
		Summary:   summarize(snapshot),
		CreatedAt: now,
		UpdatedAt: now,
	}

	a.mu.Lock()
	st.caseID = c.ID
	a.mu.Unlock()

	a.store.UpsertCase(c)
	a.metrics.CasesCreated.WithLabelValues(c.Priority.String()).Inc()
	if a.caseDB != nil {
		if _, err := a.caseDB.InsertOne(context.Background(), c); err != nil {
			zap.S().Errorw("failed to persist case", "caseID", c.ID, "error", err)
		}
	}

	if evt, err := models.NewEvent(models.EventCaseCreated, models.CaseCreatedPayload{Case: c}); err == nil {
		a.pub.BroadcastToRole(models.RoleHealthWorker, evt)
		a.pub.BroadcastToRole(models.RoleDoctor, evt)
	}

	if c.Priority == models.UrgencyCritical {
		a.notifyQueue(models.RoleDoctor, models.NotificationUrgentCase, "Critical case",
			fmt.Sprintf("Patient %s needs immediate review", c.PatientID), c.Priority)
		a.raiseUrgentAlert(c.ID, snapshot)
	} else {
		a.notifyQueue(models.RoleHealthWorker, models.NotificationCaseAssigned, "New case",
			fmt.Sprintf("Patient %s reported %s-priority symptoms", c.PatientID, c.Priority), c.Priority)
	}
	zap.S().Infow("case opened", "caseID", c.ID, "sessionID", c.SessionID, "priority", c.Priority)
}

// notifyQueue pushes a role-queue notification to the store, persists it and
// mirrors it onto the wire.
func (a *Aggregator) notifyQueue(role models.Role, typ models.NotificationType, title, message string, priority models.Urgency) {
	n := models.Notification{
		ID:         uuid.New().String(),
		TargetRole: role,
		Type:       typ,
		Title:      title,
		Message:    message,
		Priority:   priority,
		CreatedAt:  time.Now().UTC(),
	}
	a.store.PushNotification(n)
	a.metrics.NotificationsPushed.WithLabelValues(string(typ)).Inc()
	if a.notificationDB != nil {
		if _, err := a.notificationDB.InsertOne(context.Background(), n); err != nil {
			zap.S().Errorw("failed to persist notification", "notificationID", n.ID, "error", err)
		}
	}
	if evt, err := models.NewEvent(models.EventNotification, models.NotificationPayload{Notification: n}); err == nil {
		a.pub.BroadcastToRole(role, evt)
	}
}

func (a *Aggregator) raiseUrgentAlert(caseID string, snapshot models.Session) {
	payload := models.UrgentAlertPayload{
		Message: fmt.Sprintf("Critical symptoms reported by patient %s", snapshot.PatientID),
		CaseID:  caseID,
	}
	if evt, err := models.NewEvent(models.EventUrgentAlert, payload); err == nil {
		a.pub.Broadcast(evt)
		a.metrics.UrgentAlertsSent.Inc()
	}
}

// applyEnrichment fills the audio/video references of an assistant turn if
// the session is still in the generation the turn was produced in. Stale
// results are dropped silently.
func (a *Aggregator) applyEnrichment(sessionID, turnID string, gen int, e ai.Enrichment) {
	a.mu.Lock()
	st, ok := a.sessions[sessionID]
	if !ok || st.gen != gen {
		a.mu.Unlock()
		zap.S().Debugw("discarding stale enrichment", "sessionID", sessionID, "turnID", turnID)
		return
	}
	for i := range st.sess.Turns {
		if st.sess.Turns[i].ID != turnID {
			continue
		}
		if e.AudioRef != "" {
			st.sess.Turns[i].AudioRef = e.AudioRef
		}
		if e.VideoRef != "" {
			st.sess.Turns[i].VideoRef = e.VideoRef
		}
		break
	}
	snapshot := cloneSession(st.sess)
	a.mu.Unlock()

	a.store.UpsertSession(snapshot)
	a.persistSession(snapshot)
}

func (a *Aggregator) persistSession(sess models.Session) {
	if a.sessionDB == nil {
		return
	}
	filter := bson.M{"_id": sess.ID}
	update := bson.M{"$set": sess}
	opts := options.Update().SetUpsert(true)
	if err := a.sessionDB.UpdateOne(context.Background(), filter, update, opts); err != nil {
		zap.S().Errorw("failed to persist session", "sessionID", sess.ID, "error", err)
	}
}

func (a *Aggregator) persistCaseUpdate(caseID string, u models.CaseUpdate) {
	if a.caseDB == nil {
		return
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.AssignedWorkerID != nil {
		set["assignedWorkerID"] = *u.AssignedWorkerID
	}
	if u.AssignedDoctorID != nil {
		set["assignedDoctorID"] = *u.AssignedDoctorID
	}
	if u.Priority != nil {
		set["priority"] = *u.Priority
	}
	if err := a.caseDB.UpdateOne(context.Background(), bson.M{"_id": caseID}, bson.M{"$set": set}); err != nil {
		zap.S().Errorw("failed to persist case update", "caseID", caseID, "error", err)
	}
}

func (a *Aggregator) patientMutex(patientID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	pmu, ok := a.patientMus[patientID]
	if !ok {
		pmu = &sync.Mutex{}
		a.patientMus[patientID] = pmu
	}
	return pmu
}

// summarize builds the case summary from the first patient turn
func summarize(sess models.Session) string {
	for _, t := range sess.Turns {
		if t.Speaker == models.SpeakerPatient {
			if runes := []rune(t.Text); len(runes) > 140 {
				return string(runes[:140])
			}
			return t.Text
		}
	}
	return "Patient session requires review"
}

func cloneSession(sess models.Session) models.Session {
	out := sess
	out.Turns = append([]models.ChatTurn(nil), sess.Turns...)
	out.Entities = append([]models.MedicalEntity(nil), sess.Entities...)
	return out
}
