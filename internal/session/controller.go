// Package session owns the lifecycle of a monitoring session: the connection
// string the user typed, the backend session id, and whether a connect or
// disconnect is currently in flight.
//
// The Controller is the single writer of the session id. Feeds observe it by
// subscribing and re-reading SessionID on every notification.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/logger"
)

// MsgConnectionRequired is stored when Connect is called with a blank string.
const MsgConnectionRequired = "Connection string is required"

// Client is the subset of the API client the controller needs.
type Client interface {
	Connect(ctx context.Context, connectionString string) (*api.ConnectResult, error)
	Disconnect(ctx context.Context, connectionID string) (*api.DisconnectResult, error)
}

// State is an immutable copy of the controller's fields.
type State struct {
	ConnectionString string
	SessionID        string
	Connected        bool
	Loading          bool
	Error            string
	ConnectedAt      time.Time
}

// Controller manages connect/disconnect against the backend.
type Controller struct {
	client Client
	log    logger.Logger
	now    func() time.Time

	mu               sync.Mutex
	connectionString string
	sessionID        string
	connected        bool
	loading          bool
	errMsg           string
	connectedAt      time.Time
	initial          *api.StatusSnapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]func()

	// notifyMu serializes delivery so subscribers see mutations in order.
	notifyMu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithConnectionString seeds the connection string, typically from config.
func WithConnectionString(s string) Option {
	return func(c *Controller) {
		c.connectionString = s
	}
}

// WithNow overrides the clock used for ConnectedAt.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a disconnected controller.
func NewController(client Client, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		log:    logger.NewEnvLogger("[session]"),
		now:    time.Now,
		subs:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateConnectionString replaces the stored connection string.
func (c *Controller) UpdateConnectionString(s string) {
	c.mu.Lock()
	c.connectionString = s
	c.mu.Unlock()
}

// Connect opens a session using the current connection string.
// The error is also stored and visible through State().Error, except for the
// "operation in progress" rejection which leaves the error slot alone.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return errors.New(errors.ErrSession, "A connect or disconnect is already in progress", "Wait for it to finish.")
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	if strings.TrimSpace(c.connectionString) == "" {
		c.errMsg = MsgConnectionRequired
		c.mu.Unlock()
		c.notify()
		return errors.New(errors.ErrValidation, MsgConnectionRequired,
			"Pass --connection, set connection.string in .dbmon.yaml, or type one into the form.")
	}
	c.loading = true
	c.errMsg = ""
	connStr := c.connectionString
	c.mu.Unlock()
	c.notify()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
		c.notify()
	}()

	c.log.Debug("connecting")
	res, err := c.client.Connect(ctx, connStr)
	if err != nil {
		c.mu.Lock()
		c.errMsg = errors.MessageOr(err, api.FallbackConnect)
		c.mu.Unlock()
		c.log.Debug("connect failed: %s", errors.Message(err))
		return err
	}

	initial := res.StatusSnapshot
	c.mu.Lock()
	c.sessionID = res.ConnectionID
	c.connected = true
	c.connectedAt = c.now()
	c.initial = &initial
	c.mu.Unlock()
	c.log.Debug("connected, session %s", res.ConnectionID)
	return nil
}

// Disconnect closes the current session. With no session it does nothing.
// The session is cleared locally even when the backend call fails.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		return nil
	}
	if c.loading {
		c.mu.Unlock()
		return errors.New(errors.ErrSession, "A connect or disconnect is already in progress", "Wait for it to finish.")
	}
	c.loading = true
	c.errMsg = ""
	id := c.sessionID
	c.mu.Unlock()
	c.notify()

	c.log.Debug("disconnecting session %s", id)
	_, err := c.client.Disconnect(ctx, id)

	c.mu.Lock()
	c.sessionID = ""
	c.connected = false
	c.connectedAt = time.Time{}
	c.loading = false
	if err != nil {
		c.errMsg = errors.MessageOr(err, api.FallbackDisconnect)
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.log.Warn("disconnect of session %s failed, cleared locally: %s", id, errors.Message(err))
		return err
	}
	return nil
}

// Reset clears the session id, connected flag and error without a network call.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.sessionID = ""
	c.connected = false
	c.connectedAt = time.Time{}
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
}

// SessionID returns the current session id, "" when disconnected.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// State returns a copy of the controller's fields.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ConnectionString: c.connectionString,
		SessionID:        c.sessionID,
		Connected:        c.connected,
		Loading:          c.loading,
		Error:            c.errMsg,
		ConnectedAt:      c.connectedAt,
	}
}

// InitialStatus returns the stats the most recent successful connect returned.
func (c *Controller) InitialStatus() (api.StatusSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initial == nil {
		return api.StatusSnapshot{}, false
	}
	return *c.initial, true
}

// Subscribe registers fn to run after every state change. fn must not block
// for long; it runs on the goroutine that made the change.
func (c *Controller) Subscribe(fn func()) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.subMu.Lock()
	fns := make([]func(), 0, len(c.subs))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
