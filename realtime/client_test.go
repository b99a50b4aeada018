package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/virtudoc/virtudoc-engine/models"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newGatewayServer upgrades every request and hands the server-side
// connection to fn
func newGatewayServer(t *testing.T, fn func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		fn(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// watchStates funnels every state transition into a channel the test can
// wait on
func watchStates(c *Client) <-chan ConnectionState {
	states := make(chan ConnectionState, 32)
	c.OnStateChange(func(s ConnectionState) { states <- s })
	return states
}

func waitForState(t *testing.T, states <-chan ConnectionState, want ConnectionState) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestBackoffDelayDoublesPerAttempt(t *testing.T) {
	c := NewClient(Config{URL: "ws://unused"})
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}
	for i, d := range want {
		assert.Equal(t, d, c.backoffDelay(i+1))
	}
}

func TestClientConnectsAndDispatchesEvents(t *testing.T) {
	ready := make(chan *websocket.Conn, 1)
	srv := newGatewayServer(t, func(conn *websocket.Conn) { ready <- conn })
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)})
	states := watchStates(c)

	received := make(chan interface{}, 4)
	order := make(chan int, 4)
	c.On(models.EventUrgentAlert, func(payload interface{}) {
		order <- 1
		received <- payload
	})
	c.On(models.EventUrgentAlert, func(payload interface{}) {
		order <- 2
	})

	c.Connect("user-1", models.RoleDoctor, "token")
	waitForState(t, states, StateConnected)

	server := <-ready
	evt, err := models.NewEvent(models.EventUrgentAlert, models.UrgentAlertPayload{CaseID: "c1", Message: "go"})
	assert.NoError(t, err)
	assert.NoError(t, server.WriteJSON(evt))

	select {
	case payload := <-received:
		p, ok := payload.(models.UrgentAlertPayload)
		assert.True(t, ok)
		assert.Equal(t, "c1", p.CaseID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	// handlers for the same type run in registration order
	assert.Equal(t, 1, <-order)
	assert.Equal(t, 2, <-order)

	c.Disconnect()
}

func TestClientSendsIdentityOnHandshake(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)})
	states := watchStates(c)
	c.Connect("user-9", models.RoleHealthWorker, "secret-token")
	waitForState(t, states, StateConnected)

	h := <-headers
	assert.Equal(t, "Bearer secret-token", h.Get("Authorization"))
	assert.Equal(t, "user-9", h.Get("X-User-ID"))
	assert.Equal(t, string(models.RoleHealthWorker), h.Get("X-User-Role"))

	c.Disconnect()
}

func TestClientRetriesWithExponentialBackoffThenFails(t *testing.T) {
	delays := make(chan time.Duration, 16)

	// nothing listens on this address, every dial fails fast
	c := NewClient(Config{URL: "ws://127.0.0.1:1"})
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		delays <- d
		go f()
		return time.NewTimer(time.Hour)
	}

	states := watchStates(c)
	c.Connect("user-1", models.RolePatient, "token")
	waitForState(t, states, StateFailed)

	var got []time.Duration
	close(delays)
	for d := range delays {
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
	}, got)
}

func TestClientStopsRetryingOnAuthRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	scheduled := make(chan time.Duration, 8)
	c := NewClient(Config{URL: wsURL(srv)})
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		scheduled <- d
		return time.NewTimer(time.Hour)
	}

	states := watchStates(c)
	c.Connect("user-1", models.RolePatient, "expired")
	waitForState(t, states, StateFailed)

	// a rejected handshake never schedules a retry
	select {
	case d := <-scheduled:
		t.Fatalf("unexpected reconnect scheduled after %v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectIsNoOpWhileActive(t *testing.T) {
	ready := make(chan *websocket.Conn, 2)
	srv := newGatewayServer(t, func(conn *websocket.Conn) { ready <- conn })
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)})
	states := watchStates(c)
	c.Connect("user-1", models.RolePatient, "token")
	waitForState(t, states, StateConnected)

	c.Connect("user-1", models.RolePatient, "token")
	assert.Equal(t, StateConnected, c.State())

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("first connection never arrived")
	}
	select {
	case <-ready:
		t.Fatal("second Connect opened another connection")
	case <-time.After(100 * time.Millisecond):
	}

	c.Disconnect()
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ready := make(chan *websocket.Conn, 1)
	srv := newGatewayServer(t, func(conn *websocket.Conn) { ready <- conn })
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)})
	states := watchStates(c)
	c.Connect("user-1", models.RolePatient, "token")
	waitForState(t, states, StateConnected)

	c.Disconnect()
	assert.Equal(t, StateDisconnected, c.State())
	c.Disconnect()
	assert.Equal(t, StateDisconnected, c.State())
}

func TestConnectAfterFailedStartsFresh(t *testing.T) {
	c := NewClient(Config{URL: "ws://127.0.0.1:1", MaxAttempts: 1})
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		go f()
		return time.NewTimer(time.Hour)
	}

	states := watchStates(c)
	c.Connect("user-1", models.RolePatient, "token")
	waitForState(t, states, StateFailed)

	// Failed is not sticky, a fresh Connect runs the cycle again
	c.Connect("user-1", models.RolePatient, "token")
	waitForState(t, states, StateFailed)
}

func TestOnRejectsUnknownEventType(t *testing.T) {
	c := NewClient(Config{URL: "ws://unused"})
	c.On(models.EventType("bogus"), func(interface{}) {})
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.handlers)
}
