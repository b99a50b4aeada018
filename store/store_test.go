package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
)

func TestUpsertCaseKeepsInsertionOrder(t *testing.T) {
	s := New()
	s.UpsertCase(models.Case{ID: "c1", Status: models.CasePending})
	s.UpsertCase(models.Case{ID: "c2", Status: models.CasePending})
	s.UpsertCase(models.Case{ID: "c1", Status: models.CaseInReview}) // replace, not reorder

	cases := s.Cases()
	assert.Len(t, cases, 2)
	assert.Equal(t, "c1", cases[0].ID)
	assert.Equal(t, models.CaseInReview, cases[0].Status)
	assert.Equal(t, "c2", cases[1].ID)
}

func TestActiveCasesFiltersTerminalStatuses(t *testing.T) {
	s := New()
	s.UpsertCase(models.Case{ID: "c1", Status: models.CasePending})
	s.UpsertCase(models.Case{ID: "c2", Status: models.CaseClosed})
	s.UpsertCase(models.Case{ID: "c3", Status: models.CaseEscalated})

	active := s.ActiveCases()
	assert.Len(t, active, 2)
	assert.Equal(t, "c1", active[0].ID)
	assert.Equal(t, "c3", active[1].ID)
}

func TestApplyCaseUpdatePatchesOnlyProvidedFields(t *testing.T) {
	s := New()
	s.UpsertCase(models.Case{ID: "c1", Status: models.CasePending, Priority: models.UrgencyMedium})

	worker := "worker-7"
	s.ApplyCaseUpdate("c1", models.CaseUpdate{AssignedWorkerID: &worker})

	c, ok := s.Case("c1")
	assert.True(t, ok)
	assert.Equal(t, "worker-7", c.AssignedWorkerID)
	assert.Equal(t, models.CasePending, c.Status)
	assert.Equal(t, models.UrgencyMedium, c.Priority)
}

func TestApplyCaseUpdateUnknownIDIsNoOp(t *testing.T) {
	s := New()
	var changes int
	s.Subscribe(func(Change) { changes++ })

	status := models.CaseClosed
	s.ApplyCaseUpdate("ghost", models.CaseUpdate{Status: &status})

	assert.Empty(t, s.Cases())
	assert.Zero(t, changes)
}

func TestActiveSessionForPatient(t *testing.T) {
	s := New()
	s.UpsertSession(models.Session{ID: "s1", PatientID: "p1", Status: models.SessionCompleted})
	s.UpsertSession(models.Session{ID: "s2", PatientID: "p1", Status: models.SessionActive})
	s.UpsertSession(models.Session{ID: "s3", PatientID: "p2", Status: models.SessionActive})

	sess, ok := s.ActiveSessionForPatient("p1")
	assert.True(t, ok)
	assert.Equal(t, "s2", sess.ID)

	_, ok = s.ActiveSessionForPatient("p9")
	assert.False(t, ok)
}

func TestUnreadCountTracksMarkRead(t *testing.T) {
	s := New()
	s.PushNotification(models.Notification{ID: "n1"})
	s.PushNotification(models.Notification{ID: "n2"})
	assert.Equal(t, 2, s.UnreadCount())

	s.MarkRead("n1")
	assert.Equal(t, 1, s.UnreadCount())

	// marking twice changes nothing
	s.MarkRead("n1")
	assert.Equal(t, 1, s.UnreadCount())
}

func TestMarkReadUnknownIDRaisesNoChange(t *testing.T) {
	s := New()
	s.PushNotification(models.Notification{ID: "n1"})

	var changes []Change
	s.Subscribe(func(ch Change) { changes = append(changes, ch) })

	s.MarkRead("ghost")
	assert.Empty(t, changes)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestClearNotificationsResetsEverything(t *testing.T) {
	s := New()
	s.PushNotification(models.Notification{ID: "n1"})
	s.PushNotification(models.Notification{ID: "n2", Read: true})

	s.ClearNotifications()
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.UnreadCount())
}

func TestNotificationsForUserMatchesDirectAndRoleQueue(t *testing.T) {
	s := New()
	s.PushNotification(models.Notification{ID: "n1", TargetUserID: "u1"})
	s.PushNotification(models.Notification{ID: "n2", TargetRole: models.RoleDoctor})
	s.PushNotification(models.Notification{ID: "n3", TargetRole: models.RoleHealthWorker})
	s.PushNotification(models.Notification{ID: "n4", TargetUserID: "u2"})

	got := s.NotificationsForUser("u1", models.RoleDoctor)
	ids := make([]string, 0, len(got))
	for _, n := range got {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"n1", "n2"}, ids)
}

func TestObserversSeeFullyAppliedState(t *testing.T) {
	s := New()

	var observed models.CaseStatus
	s.Subscribe(func(ch Change) {
		if ch.Kind != ChangeCase {
			return
		}
		// by the time the observer runs, the query methods already
		// reflect the change
		c, ok := s.Case(ch.Case.ID)
		assert.True(t, ok)
		observed = c.Status
	})

	s.UpsertCase(models.Case{ID: "c1", Status: models.CaseInReview})
	assert.Equal(t, models.CaseInReview, observed)
}

func TestObserversRunInSubscriptionOrder(t *testing.T) {
	s := New()
	var order []int
	s.Subscribe(func(Change) { order = append(order, 1) })
	s.Subscribe(func(Change) { order = append(order, 2) })

	s.PushNotification(models.Notification{ID: "n1"})
	assert.Equal(t, []int{1, 2}, order)
}

func TestNotificationChangeCarriesUnreadCount(t *testing.T) {
	s := New()
	var lastUnread int
	s.Subscribe(func(ch Change) {
		if ch.Kind == ChangeNotification {
			lastUnread = ch.UnreadCount
		}
	})

	s.PushNotification(models.Notification{ID: "n1"})
	s.PushNotification(models.Notification{ID: "n2"})
	assert.Equal(t, 2, lastUnread)

	s.MarkRead("n2")
	assert.Equal(t, 1, lastUnread)
}

func TestConnectionStateMirror(t *testing.T) {
	s := New()
	assert.False(t, s.IsConnected())

	var seen realtime.ConnectionState
	s.Subscribe(func(ch Change) {
		if ch.Kind == ChangeConnection {
			seen = ch.ConnectionState
		}
	})

	s.SetConnectionState(realtime.StateConnected)
	assert.True(t, s.IsConnected())
	assert.Equal(t, realtime.StateConnected, seen)

	s.SetConnectionState(realtime.StateReconnecting)
	assert.False(t, s.IsConnected())
}
