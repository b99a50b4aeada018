package realtime

import (
	"net/http"
	"time"

	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/models"
)

const (
	defaultBaseDelay   = 1000 * time.Millisecond
	defaultMaxAttempts = 5
)

// Handler receives the decoded payload of one push event. Handlers for the
// same event type run in registration order.
type Handler func(payload interface{})

// StateHook observes connection state transitions. Hooks run synchronously on
// the transition and must not call back into the Client.
type StateHook func(state ConnectionState)

// Config carries the tunables for a Client. Zero values fall back to the
// production defaults.
type Config struct {
	// URL of the push gateway websocket endpoint
	URL string
	// BaseDelay is the first reconnect delay; attempt n waits BaseDelay * 2^(n-1)
	BaseDelay time.Duration
	// MaxAttempts bounds consecutive reconnect attempts before giving up
	MaxAttempts int
	// Dialer may be replaced in tests
	Dialer *websocket.Dialer
}

// Client maintains one long-lived authenticated websocket to the push
// gateway. Transport errors are never returned to callers; they only show up
// as state transitions. After MaxAttempts consecutive failures the client
// parks in StateFailed until Connect is called again.
type Client struct {
	url         string
	baseDelay   time.Duration
	maxAttempts int
	dialer      *websocket.Dialer

	// afterFunc is swapped out in tests so the backoff timers do not sleep
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu         sync.Mutex
	conn       *websocket.Conn
	state      ConnectionState
	handlers   map[models.EventType][]Handler
	stateHooks []StateHook
	timer      *time.Timer
	failures   int
	closing    bool

	userID string
	role   models.Role
	token  string
}

// NewClient creates a disconnected push client for the given gateway
func NewClient(cfg Config) *Client {
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{
		url:         cfg.URL,
		baseDelay:   cfg.BaseDelay,
		maxAttempts: cfg.MaxAttempts,
		dialer:      cfg.Dialer,
		afterFunc:   time.AfterFunc,
		state:       StateDisconnected,
		handlers:    make(map[models.EventType][]Handler),
	}
}

// On registers a handler for one of the fixed event types. Unknown event
// types are rejected so a typo cannot silently drop events.
func (c *Client) On(t models.EventType, h Handler) {
	if !t.IsValid() {
		zap.S().Errorw("refusing to register handler for unknown event type", "type", t)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = append(c.handlers[t], h)
}

// OnStateChange registers a hook invoked on every state transition
func (c *Client) OnStateChange(fn StateHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateHooks = append(c.stateHooks, fn)
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the push channel tagged with the given identity. It is a
// no-op while a connection is open or being opened. A previous Failed state
// is cleared; the attempt counter starts fresh.
func (c *Client) Connect(userID string, role models.Role, authToken string) {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting || c.state == StateReconnecting {
		c.mu.Unlock()
		return
	}
	c.userID = userID
	c.role = role
	c.token = authToken
	c.closing = false
	c.failures = 0
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.dial()
}

// Disconnect closes the channel and cancels any pending reconnect timer.
// Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// Emit pushes an event to the gateway. Errors are absorbed; a broken
// connection surfaces through the read loop and the usual retry path.
func (c *Client) Emit(t models.EventType, payload interface{}) {
	evt, err := models.NewEvent(t, payload)
	if err != nil {
		zap.S().Errorw("failed to build push event", "type", t, "error", err)
		return
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		zap.S().Debugw("dropping emit while disconnected", "type", t)
		return
	}
	if err := conn.WriteJSON(evt); err != nil {
		zap.S().Warnw("failed to write push event", "type", t, "error", err)
	}
}

func (c *Client) dial() {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	userID, role, token := c.userID, c.role, c.token
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("X-User-ID", userID)
	header.Set("X-User-Role", string(role))

	conn, resp, err := c.dialer.Dial(c.url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			// handshake rejected: no amount of retrying will fix a bad token
			zap.S().Errorw("push gateway rejected credentials", "status", resp.StatusCode, "userID", userID)
			c.mu.Lock()
			c.setStateLocked(StateFailed)
			c.mu.Unlock()
			return
		}
		zap.S().Warnw("push gateway dial failed", "error", err)
		c.handleFailure()
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.failures = 0
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	zap.S().Infow("push channel connected", "userID", userID, "role", role)
	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var evt models.Event
		if err := conn.ReadJSON(&evt); err != nil {
			c.handleClose(err)
			return
		}
		c.dispatch(evt)
	}
}

func (c *Client) dispatch(evt models.Event) {
	payload, err := models.DecodeEventPayload(evt)
	if err != nil {
		zap.S().Warnw("dropping undecodable push event", "type", evt.Type, "error", err)
		return
	}
	c.mu.Lock()
	handlers := append([]Handler(nil), c.handlers[evt.Type]...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}

func (c *Client) handleClose(err error) {
	c.mu.Lock()
	c.conn = nil
	if c.closing {
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		// server-initiated close is terminal, not a network fault
		zap.S().Infow("push gateway closed the connection", "error", err)
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	zap.S().Warnw("push channel dropped", "error", err)
	c.handleFailure()
}

// handleFailure counts one failed connect and either schedules the next
// attempt or parks in StateFailed once the budget is spent.
func (c *Client) handleFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		c.setStateLocked(StateDisconnected)
		return
	}
	c.failures++
	if c.failures > c.maxAttempts {
		zap.S().Errorw("max reconnection attempts reached", "attempts", c.maxAttempts)
		c.setStateLocked(StateFailed)
		return
	}
	delay := c.backoffDelay(c.failures)
	zap.S().Infow("scheduling reconnect",
		"attempt", c.failures,
		"maxAttempts", c.maxAttempts,
		"delay", delay,
	)
	c.setStateLocked(StateReconnecting)
	c.timer = c.afterFunc(delay, c.dial)
}

// backoffDelay returns BaseDelay * 2^(attempt-1)
func (c *Client) backoffDelay(attempt int) time.Duration {
	return c.baseDelay * time.Duration(1<<uint(attempt-1))
}

func (c *Client) setStateLocked(s ConnectionState) {
	if c.state == s {
		return
	}
	c.state = s
	for _, fn := range c.stateHooks {
		fn(s)
	}
}
