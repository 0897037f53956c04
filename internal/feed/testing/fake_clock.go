// Package testing provides test doubles for the feed package.
package testing

import (
	"sync"
	"time"

	"github.com/rileyhilliard/dbmon/internal/feed"
)

// FakeClock is a manually advanced feed.Clock.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
	created int
}

// NewFakeClock creates a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a ticker that fires as the clock is advanced.
func (c *FakeClock) NewTicker(d time.Duration) feed.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTicker{
		clock:  c,
		period: d,
		next:   c.now.Add(d),
		ch:     make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, t)
	c.created++
	return t
}

// Advance moves time forward by d and fires every ticker that came due.
// Like time.Ticker, a ticker whose channel is full drops the tick.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*FakeTicker
	for _, t := range c.tickers {
		fired := false
		for !t.next.After(now) {
			t.next = t.next.Add(t.period)
			fired = true
		}
		if fired {
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		select {
		case t.ch <- now:
		default:
		}
	}
}

// ActiveTickers returns how many tickers are running.
func (c *FakeClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// TickersCreated returns how many tickers were ever created.
func (c *FakeClock) TickersCreated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

func (c *FakeClock) remove(t *FakeTicker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.tickers {
		if existing == t {
			c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
			return
		}
	}
}

// FakeTicker is a ticker driven by FakeClock.Advance.
type FakeTicker struct {
	clock  *FakeClock
	period time.Duration
	next   time.Time
	ch     chan time.Time
	once   sync.Once
}

// C returns the tick channel.
func (t *FakeTicker) C() <-chan time.Time {
	return t.ch
}

// Stop unregisters the ticker. Safe to call more than once.
func (t *FakeTicker) Stop() {
	t.once.Do(func() { t.clock.remove(t) })
}

// SessionSource is a settable feed.SessionSource.
type SessionSource struct {
	mu   sync.Mutex
	id   string
	next int
	subs map[int]func()
}

// NewSessionSource creates a source with no session.
func NewSessionSource() *SessionSource {
	return &SessionSource{subs: make(map[int]func())}
}

// SessionID returns the current session id.
func (s *SessionSource) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Subscribe registers fn for change notifications.
func (s *SessionSource) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Set changes the session id and notifies subscribers synchronously.
func (s *SessionSource) Set(id string) {
	s.mu.Lock()
	s.id = id
	fns := make([]func(), 0, len(s.subs))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of live subscriptions.
func (s *SessionSource) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
