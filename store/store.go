// Package store holds the process-wide cache of cases, sessions and
// notifications that the dashboards read from. It is a constructible service
// object: every consumer gets the instance injected, tests build a fresh one.
// Only the session aggregator and the transport layer mutate it.
package store

import (
	"sync"

	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
)

// ChangeKind names the mutation an observer is told about
type ChangeKind string

// Predefined ChangeKind values
const (
	ChangeCase         ChangeKind = "case"
	ChangeSession      ChangeKind = "session"
	ChangeNotification ChangeKind = "notification"
	ChangeConnection   ChangeKind = "connection"
)

// Change describes one fully-applied mutation. Observers never see the store
// mid-mutation; by the time a Change is delivered the state behind the query
// methods already reflects it.
type Change struct {
	Kind            ChangeKind
	Case            *models.Case
	Session         *models.Session
	Notification    *models.Notification
	ConnectionState realtime.ConnectionState
	UnreadCount     int
}

// Observer receives store changes in subscription order
type Observer func(Change)

// Store is the in-memory cache shared by every dashboard view
type Store struct {
	mu            sync.Mutex
	cases         map[string]models.Case
	caseOrder     []string
	sessions      map[string]models.Session
	notifications []models.Notification
	unread        int
	connState     realtime.ConnectionState
	observers     []Observer
}

// New creates an empty store in the disconnected state
func New() *Store {
	return &Store{
		cases:     make(map[string]models.Case),
		sessions:  make(map[string]models.Session),
		connState: realtime.StateDisconnected,
	}
}

// Subscribe registers an observer for all subsequent changes
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// UpsertCase inserts or replaces a case by id
func (s *Store) UpsertCase(c models.Case) {
	s.mu.Lock()
	if _, ok := s.cases[c.ID]; !ok {
		s.caseOrder = append(s.caseOrder, c.ID)
	}
	s.cases[c.ID] = c
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeCase, Case: &c})
}

// ApplyCaseUpdate patches an existing case in place. Unknown ids are a no-op
// so a stale case-updated event cannot invent records.
func (s *Store) ApplyCaseUpdate(caseID string, u models.CaseUpdate) {
	s.mu.Lock()
	c, ok := s.cases[caseID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.AssignedWorkerID != nil {
		c.AssignedWorkerID = *u.AssignedWorkerID
	}
	if u.AssignedDoctorID != nil {
		c.AssignedDoctorID = *u.AssignedDoctorID
	}
	if u.Priority != nil {
		c.Priority = *u.Priority
	}
	s.cases[caseID] = c
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeCase, Case: &c})
}

// Cases returns every cached case in insertion order
func (s *Store) Cases() []models.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Case, 0, len(s.caseOrder))
	for _, id := range s.caseOrder {
		out = append(out, s.cases[id])
	}
	return out
}

// ActiveCases returns the cases still needing human attention, in insertion
// order (status pending, in-review or escalated)
func (s *Store) ActiveCases() []models.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Case{}
	for _, id := range s.caseOrder {
		if c := s.cases[id]; c.Status.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

// Case returns one case by id
func (s *Store) Case(id string) (models.Case, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	return c, ok
}

// UpsertSession mirrors the aggregator's canonical session into the index
// the dashboards read
func (s *Store) UpsertSession(sess models.Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeSession, Session: &sess})
}

// Session returns one indexed session by id
func (s *Store) Session(id string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// ActiveSessionForPatient returns the patient's active session, if any
func (s *Store) ActiveSessionForPatient(patientID string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.PatientID == patientID && sess.Status == models.SessionActive {
			return sess, true
		}
	}
	return models.Session{}, false
}

// PushNotification appends a notification and recomputes the unread count
func (s *Store) PushNotification(n models.Notification) {
	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	s.recountUnreadLocked()
	unread := s.unread
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeNotification, Notification: &n, UnreadCount: unread})
}

// MarkRead sets read=true on exactly one notification. Unknown ids leave the
// store untouched and raise no change.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	var marked *models.Notification
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			n := s.notifications[i]
			marked = &n
			break
		}
	}
	if marked == nil {
		s.mu.Unlock()
		return
	}
	s.recountUnreadLocked()
	unread := s.unread
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeNotification, Notification: marked, UnreadCount: unread})
}

// ClearNotifications drops every notification. This is the only way entries
// leave the store besides MarkRead flipping their flag.
func (s *Store) ClearNotifications() {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeNotification, UnreadCount: 0})
}

// Notifications returns all notifications in push order
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

// NotificationsForUser returns the notifications addressed to a user or to
// their role queue, in push order
func (s *Store) NotificationsForUser(userID string, role models.Role) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for _, n := range s.notifications {
		if (n.TargetUserID != "" && n.TargetUserID == userID) || (n.TargetUserID == "" && n.TargetRole == role) {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns the number of notifications with read=false
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// SetConnectionState mirrors the transport client's state for consumers that
// only need IsConnected
func (s *Store) SetConnectionState(state realtime.ConnectionState) {
	s.mu.Lock()
	s.connState = state
	observers := s.observersLocked()
	s.mu.Unlock()

	notify(observers, Change{Kind: ChangeConnection, ConnectionState: state})
}

// ConnectionState returns the mirrored transport state
func (s *Store) ConnectionState() realtime.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connState
}

// IsConnected reports whether the push channel is up
func (s *Store) IsConnected() bool {
	return s.ConnectionState().IsConnected()
}

func (s *Store) recountUnreadLocked() {
	count := 0
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	s.unread = count
}

func (s *Store) observersLocked() []Observer {
	return append([]Observer(nil), s.observers...)
}

func notify(observers []Observer, ch Change) {
	for _, fn := range observers {
		fn(ch)
	}
}
