// Package dashboard wires the session controller to the five feeds and
// exposes the pure views the presentation layer derives from them.
package dashboard

import (
	"context"
	"sync"

	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/feed"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"github.com/rileyhilliard/dbmon/internal/session"
)

// Feed names, in the order the 1-5 refresh keys address them.
const (
	FeedStatus      = "status"
	FeedIssues      = "issues"
	FeedJobs        = "jobs"
	FeedPerformance = "performance"
	FeedLogs        = "logs"
)

// FeedOrder lists every feed name.
var FeedOrder = []string{FeedStatus, FeedIssues, FeedJobs, FeedPerformance, FeedLogs}

// DefaultPerformanceHours is the performance lookback when none is configured.
const DefaultPerformanceHours = 6

// Client is the backend surface the dashboard uses.
type Client interface {
	session.Client
	GetStatus(ctx context.Context, connectionID string) (api.StatusSnapshot, error)
	GetIssues(ctx context.Context, connectionID string) ([]api.Issue, error)
	GetJobs(ctx context.Context, connectionID string) ([]api.Job, error)
	GetLogs(ctx context.Context, connectionID string) ([]api.LogEntry, error)
	GetPerformance(ctx context.Context, connectionID string, hours int) ([]api.MetricPoint, error)
}

// Options configures a Dashboard.
type Options struct {
	ConnectionString string
	PerformanceHours int
	Clock            feed.Clock
	Logger           logger.Logger
}

// Dashboard owns the session and its feeds.
type Dashboard struct {
	Session     *session.Controller
	Status      *feed.Poller[api.StatusSnapshot]
	Issues      *feed.Poller[[]api.Issue]
	Jobs        *feed.Poller[[]api.Job]
	Logs        *feed.Poller[[]api.LogEntry]
	Performance *feed.Poller[[]api.MetricPoint]

	hours       int
	coord       *feed.Coordinator
	byName      map[string]feedHandle
	changes     chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

// feedHandle is the type-erased part of a poller the dashboard needs.
type feedHandle interface {
	feed.Refresher
	FetchNow(ctx context.Context)
	WaitFirst(ctx context.Context) error
	Close()
}

// New builds the controller and five feeds around client.
func New(client Client, opts Options) *Dashboard {
	log := opts.Logger
	if log == nil {
		log = logger.NewEnvLogger("")
	}
	hours := opts.PerformanceHours
	if hours <= 0 {
		hours = DefaultPerformanceHours
	}

	d := &Dashboard{
		hours:   hours,
		changes: make(chan struct{}, 1),
	}
	d.Session = session.NewController(client,
		session.WithConnectionString(opts.ConnectionString),
		session.WithLogger(logger.WithPrefix(log, "[session]")),
	)

	d.Status = feed.New(d.Session, feed.Options[api.StatusSnapshot]{
		Name:     FeedStatus,
		Interval: feed.StatusInterval,
		Initial:  api.DefaultStatus(),
		Fetch:    client.GetStatus,
		Fallback: api.FallbackStatus,
		Clock:    opts.Clock,
		Logger:   logger.WithPrefix(log, "[feed:status]"),
		OnChange: d.notify,
	})
	d.Issues = feed.New(d.Session, feed.Options[[]api.Issue]{
		Name:     FeedIssues,
		Interval: feed.IssuesInterval,
		Initial:  []api.Issue{},
		Fetch:    client.GetIssues,
		Fallback: api.FallbackIssues,
		Clock:    opts.Clock,
		Logger:   logger.WithPrefix(log, "[feed:issues]"),
		OnChange: d.notify,
	})
	d.Jobs = feed.New(d.Session, feed.Options[[]api.Job]{
		Name:     FeedJobs,
		Interval: feed.JobsInterval,
		Initial:  []api.Job{},
		Fetch:    client.GetJobs,
		Fallback: api.FallbackJobs,
		Clock:    opts.Clock,
		Logger:   logger.WithPrefix(log, "[feed:jobs]"),
		OnChange: d.notify,
	})
	d.Logs = feed.New(d.Session, feed.Options[[]api.LogEntry]{
		Name:     FeedLogs,
		Interval: feed.LogsInterval,
		Initial:  []api.LogEntry{},
		Fetch:    client.GetLogs,
		Fallback: api.FallbackLogs,
		Clock:    opts.Clock,
		Logger:   logger.WithPrefix(log, "[feed:logs]"),
		OnChange: d.notify,
	})
	d.Performance = feed.New(d.Session, feed.Options[[]api.MetricPoint]{
		Name:     FeedPerformance,
		Interval: feed.PerformanceInterval,
		Initial:  []api.MetricPoint{},
		Fetch: func(ctx context.Context, id string) ([]api.MetricPoint, error) {
			return client.GetPerformance(ctx, id, hours)
		},
		Fallback: api.FallbackPerformance,
		Clock:    opts.Clock,
		Logger:   logger.WithPrefix(log, "[feed:performance]"),
		OnChange: d.notify,
	})

	d.byName = map[string]feedHandle{
		FeedStatus:      d.Status,
		FeedIssues:      d.Issues,
		FeedJobs:        d.Jobs,
		FeedPerformance: d.Performance,
		FeedLogs:        d.Logs,
	}
	d.coord = feed.NewCoordinator(d.Status, d.Issues, d.Jobs, d.Performance, d.Logs)
	d.unsubscribe = d.Session.Subscribe(d.notify)
	return d
}

// PerformanceHours returns the lookback the performance feed requests.
func (d *Dashboard) PerformanceHours() int {
	return d.hours
}

// Changes delivers a coalesced signal whenever the session or any feed changes.
func (d *Dashboard) Changes() <-chan struct{} {
	return d.changes
}

func (d *Dashboard) notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// RefreshAll asks every feed to refresh. No-op while disconnected.
func (d *Dashboard) RefreshAll() {
	d.coord.RefreshAll()
}

// RefreshFeed refreshes one feed by name. Reports whether the name is known.
func (d *Dashboard) RefreshFeed(name string) bool {
	f, ok := d.byName[name]
	if !ok {
		return false
	}
	f.Refresh()
	return true
}

// FetchAllNow refreshes every feed and waits for all of them to settle.
func (d *Dashboard) FetchAllNow(ctx context.Context) {
	var wg sync.WaitGroup
	for _, name := range FeedOrder {
		f := d.byName[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.FetchNow(ctx)
		}()
	}
	wg.Wait()
}

// WaitFirstFetch blocks until every active feed has settled its first fetch.
func (d *Dashboard) WaitFirstFetch(ctx context.Context) error {
	for _, name := range FeedOrder {
		if err := d.byName[name].WaitFirst(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot is a consistent-enough copy of everything the views render.
// Each feed is copied under its own lock; feeds are not mutually atomic.
type Snapshot struct {
	Session          session.State
	Status           feed.State[api.StatusSnapshot]
	Issues           feed.State[[]api.Issue]
	Jobs             feed.State[[]api.Job]
	Logs             feed.State[[]api.LogEntry]
	Performance      feed.State[[]api.MetricPoint]
	PerformanceHours int
}

// Snapshot copies the current state of the session and every feed.
func (d *Dashboard) Snapshot() Snapshot {
	return Snapshot{
		Session:          d.Session.State(),
		Status:           d.Status.State(),
		Issues:           d.Issues.State(),
		Jobs:             d.Jobs.State(),
		Logs:             d.Logs.State(),
		Performance:      d.Performance.State(),
		PerformanceHours: d.hours,
	}
}

// AnyLoading reports whether the session or any feed has work in flight.
func (s Snapshot) AnyLoading() bool {
	return s.Session.Loading || s.Status.Loading || s.Issues.Loading ||
		s.Jobs.Loading || s.Logs.Loading || s.Performance.Loading
}

// Close stops every feed. The backend session, if any, is left open; call
// Session.Disconnect first to close it.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		d.unsubscribe()
		for _, name := range FeedOrder {
			d.byName[name].Close()
		}
	})
}
