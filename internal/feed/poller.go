// Package feed keeps one slice of dashboard data fresh while a session exists.
//
// A Poller is dormant until its session source reports a session id. It then
// fetches once immediately and again on every tick, until the id is cleared
// or the poller is closed. Each activation owns its own context: tearing it
// down cancels the ticker and any request in flight, and completions that
// arrive afterwards are dropped.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/logger"
)

// Refresh intervals per feed.
const (
	StatusInterval      = 30 * time.Second
	LogsInterval        = 30 * time.Second
	IssuesInterval      = 60 * time.Second
	JobsInterval        = 60 * time.Second
	PerformanceInterval = 60 * time.Second
)

// SessionSource is what a poller watches to decide whether it is active.
// Subscribers must re-read SessionID on every notification.
type SessionSource interface {
	SessionID() string
	Subscribe(fn func()) (unsubscribe func())
}

// FetchFunc retrieves the feed's data for a session.
type FetchFunc[T any] func(ctx context.Context, sessionID string) (T, error)

// Options configures a Poller.
type Options[T any] struct {
	Name     string
	Interval time.Duration
	Initial  T
	Fetch    FetchFunc[T]
	// Fallback is stored when a failed fetch carries no message.
	Fallback string
	Clock    Clock
	Logger   logger.Logger
	// OnChange runs after every state change, outside the poller's lock.
	OnChange func()
}

// State is a snapshot of a poller's observable fields.
type State[T any] struct {
	Data        T
	Loading     bool
	Err         string
	LastUpdated time.Time
}

// lifetime is one activation of a poller, bound to a single session id.
type lifetime struct {
	ctx       context.Context
	cancel    context.CancelFunc
	sessionID string
	inflight  int
	first     chan struct{}
	firstOnce sync.Once
	done      chan struct{}
}

func (l *lifetime) settleFirst() {
	l.firstOnce.Do(func() { close(l.first) })
}

// Poller periodically fetches one feed for the current session.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetchFn  FetchFunc[T]
	fallback string
	clock    Clock
	log      logger.Logger
	onChange func()

	src         SessionSource
	unsubscribe func()

	mu      sync.Mutex
	state   State[T]
	life    *lifetime
	seq     uint64
	applied uint64
	closed  bool
}

// New creates a poller watching src and syncs it to the current session id.
func New[T any](src SessionSource, opts Options[T]) *Poller[T] {
	p := &Poller[T]{
		name:     opts.Name,
		interval: opts.Interval,
		fetchFn:  opts.Fetch,
		fallback: opts.Fallback,
		clock:    opts.Clock,
		log:      opts.Logger,
		onChange: opts.OnChange,
		src:      src,
		state:    State[T]{Data: opts.Initial},
	}
	if p.clock == nil {
		p.clock = RealClock()
	}
	if p.log == nil {
		p.log = logger.NewEnvLogger("[feed:" + opts.Name + "]")
	}

	p.unsubscribe = src.Subscribe(p.sync)
	p.sync()
	return p
}

// Name returns the feed name.
func (p *Poller[T]) Name() string {
	return p.name
}

// State returns a snapshot of the poller's fields.
func (p *Poller[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Active reports whether the poller currently has a session.
func (p *Poller[T]) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.life != nil
}

// Refresh starts a fetch outside the timer cadence. No-op while dormant.
func (p *Poller[T]) Refresh() {
	p.mu.Lock()
	life := p.life
	p.mu.Unlock()
	if life == nil {
		return
	}
	go p.fetchOnce(life.ctx, life)
}

// FetchNow fetches synchronously. It returns once the fetch has settled or
// ctx is done. No-op while dormant.
func (p *Poller[T]) FetchNow(ctx context.Context) {
	p.mu.Lock()
	life := p.life
	p.mu.Unlock()
	if life == nil {
		return
	}

	fctx, cancel := context.WithCancel(life.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	p.fetchOnce(fctx, life)
}

// WaitFirst blocks until the first fetch of the current activation settles,
// the activation ends, or ctx is done. Returns nil immediately while dormant.
func (p *Poller[T]) WaitFirst(ctx context.Context) error {
	p.mu.Lock()
	life := p.life
	p.mu.Unlock()
	if life == nil {
		return nil
	}
	select {
	case <-life.first:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the poller permanently and waits for its ticker to exit.
func (p *Poller[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	old := p.teardownLocked()
	p.mu.Unlock()

	p.unsubscribe()
	if old != nil {
		<-old.done
	}
	p.changed()
}

// sync activates or deactivates the poller to match the session source.
func (p *Poller[T]) sync() {
	id := p.src.SessionID()

	p.mu.Lock()
	if p.closed || (p.life != nil && p.life.sessionID == id) || (p.life == nil && id == "") {
		p.mu.Unlock()
		return
	}
	old := p.teardownLocked()
	if old != nil {
		p.log.Debug("session %s ended, stopping", old.sessionID)
	}

	var life *lifetime
	if id != "" {
		ctx, cancel := context.WithCancel(context.Background())
		life = &lifetime{
			ctx:       ctx,
			cancel:    cancel,
			sessionID: id,
			first:     make(chan struct{}),
			done:      make(chan struct{}),
		}
		p.life = life
		p.log.Debug("session %s started, polling every %s", id, p.interval)
	}
	p.mu.Unlock()

	if life != nil {
		go p.run(life)
	}
	p.changed()
}

// teardownLocked ends the current lifetime. Data and error are kept.
func (p *Poller[T]) teardownLocked() *lifetime {
	old := p.life
	if old == nil {
		return nil
	}
	p.life = nil
	old.cancel()
	old.settleFirst()
	p.state.Loading = false
	return old
}

func (p *Poller[T]) run(life *lifetime) {
	defer close(life.done)

	go p.fetchOnce(life.ctx, life)

	if p.interval <= 0 {
		<-life.ctx.Done()
		return
	}

	t := p.clock.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-life.ctx.Done():
			return
		case <-t.C():
			go p.fetchOnce(life.ctx, life)
		}
	}
}

// fetchOnce runs one fetch for life and applies the result if it is still
// current and newer than anything already applied.
func (p *Poller[T]) fetchOnce(ctx context.Context, life *lifetime) {
	p.mu.Lock()
	if p.life != life {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq
	life.inflight++
	p.state.Loading = true
	p.state.Err = ""
	p.mu.Unlock()
	p.changed()

	data, err := p.fetchFn(ctx, life.sessionID)

	p.mu.Lock()
	if p.life != life {
		p.mu.Unlock()
		p.log.Debug("dropping result #%d from ended session %s", seq, life.sessionID)
		return
	}
	life.inflight--
	p.state.Loading = life.inflight > 0
	if seq > p.applied {
		p.applied = seq
		if err != nil {
			p.state.Err = errors.MessageOr(err, p.fallback)
			p.log.Debug("fetch #%d failed: %s", seq, p.state.Err)
		} else {
			p.state.Data = data
			p.state.Err = ""
			p.state.LastUpdated = p.clock.Now()
		}
	} else {
		p.log.Debug("dropping stale result #%d (have #%d)", seq, p.applied)
	}
	life.settleFirst()
	p.mu.Unlock()
	p.changed()
}

func (p *Poller[T]) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
