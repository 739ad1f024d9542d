package offline

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ConnectivityFeed is the network monitor view the manager consumes: the
// current value plus a subscription that replays it and then delivers every
// transition.
type ConnectivityFeed interface {
	Connectivity
	Subscribe() (<-chan bool, func())
}

// KindResult is one repository's outcome within a run.
type KindResult struct {
	Kind string `json:"kind"`
	OK   bool   `json:"ok"`
}

// RunReport summarizes a single synchronization run.
type RunReport struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []KindResult `json:"results"`
	OK         bool         `json:"ok"`
}

// Manager orchestrates the entity repositories as a group. It watches
// connectivity, fires a run when the backend comes back while local
// mutations are queued, guards against overlapping runs, and publishes its
// state transitions with replay-latest semantics so late subscribers still
// observe a run's verdict.
type Manager struct {
	net     ConnectivityFeed
	log     zerolog.Logger
	limiter *rate.Limiter
	feed    *statusFeed

	mu         sync.Mutex
	state      State
	repos      []Synchronizer
	lastReport *RunReport

	runCtx      context.Context
	cancelWatch func()
	wg          sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithMinInterval bounds how often connectivity transitions may auto-trigger
// a run. Manual triggers are never throttled.
func WithMinInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

func NewManager(net ConnectivityFeed, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		net:     net,
		log:     logger.With().Str("component", "sync_manager").Logger(),
		limiter: rate.NewLimiter(rate.Every(30*time.Second), 1),
		feed:    newStatusFeed(StateIdle),
		state:   StateIdle,
		runCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds repositories to the run set. Order matters: repositories run
// in registration order, so parents whose server ids unlock dependent
// creates belong before their dependents.
func (m *Manager) Register(repos ...Synchronizer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos = append(m.repos, repos...)
}

// Repositories returns the registered run set in registration order.
func (m *Manager) Repositories() []Synchronizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Synchronizer, len(m.repos))
	copy(out, m.repos)
	return out
}

// Start begins watching connectivity. A false-to-true transition triggers a
// run, but only when some repository actually has pending work and the
// auto-trigger limiter allows it.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()
	ch, cancel := m.net.Subscribe()
	m.cancelWatch = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		seen := false
		last := false
		for {
			select {
			case <-ctx.Done():
				return
			case online, ok := <-ch:
				if !ok {
					return
				}
				if seen && !last && online {
					m.onReconnect(ctx)
				}
				seen = true
				last = online
			}
		}
	}()
}

// Stop detaches from the monitor and waits for any in-flight run.
func (m *Manager) Stop() {
	if m.cancelWatch != nil {
		m.cancelWatch()
	}
	m.wg.Wait()
}

// State returns the current manager state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastReport returns the most recent run's report, or nil before any run.
func (m *Manager) LastReport() *RunReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastReport == nil {
		return nil
	}
	cp := *m.lastReport
	cp.Results = append([]KindResult(nil), m.lastReport.Results...)
	return &cp
}

// Subscribe attaches to the state feed. The current state is delivered
// first, then every transition, until cancel is called.
func (m *Manager) Subscribe() (<-chan Transition, func()) {
	return m.feed.subscribe()
}

// TriggerSynchronization starts a run in the background and reports whether
// it was accepted. While a run is already in flight the call is a no-op
// returning false.
func (m *Manager) TriggerSynchronization() bool {
	m.mu.Lock()
	if m.state == StateSyncing {
		m.mu.Unlock()
		return false
	}
	ctx := m.runCtx
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.RunOnce(ctx)
	}()
	return true
}

// RunOnce executes one full synchronization run on the calling goroutine:
// Syncing, every repository in order, Completed or Failed, then back to
// Idle. Returns nil and false when a run is already in flight.
func (m *Manager) RunOnce(ctx context.Context) (*RunReport, bool) {
	runID := ulid.Make().String()

	m.mu.Lock()
	if m.state == StateSyncing {
		m.mu.Unlock()
		return nil, false
	}
	m.state = StateSyncing
	repos := m.repos
	m.mu.Unlock()

	m.publish(StateSyncing, runID)
	m.log.Info().Str("run", runID).Int("repositories", len(repos)).Msg("synchronization started")

	report := &RunReport{ID: runID, StartedAt: time.Now().UTC(), OK: true}
	for _, repo := range repos {
		ok := repo.Synchronize(ctx)
		report.Results = append(report.Results, KindResult{Kind: repo.Kind(), OK: ok})
		if !ok {
			report.OK = false
		}
	}
	report.FinishedAt = time.Now().UTC()

	final := StateCompleted
	if !report.OK {
		final = StateFailed
	}

	m.mu.Lock()
	m.lastReport = report
	m.state = final
	m.mu.Unlock()
	m.publish(final, runID)

	m.log.Info().
		Str("run", runID).
		Bool("ok", report.OK).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("synchronization finished")

	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
	m.publish(StateIdle, runID)

	return report, true
}

func (m *Manager) onReconnect(ctx context.Context) {
	if !m.limiter.Allow() {
		m.log.Debug().Msg("reconnect sync throttled")
		return
	}

	m.mu.Lock()
	repos := m.repos
	m.mu.Unlock()

	pending := false
	for _, repo := range repos {
		has, err := repo.HasPending(ctx)
		if err != nil {
			m.log.Error().Err(err).Str("kind", repo.Kind()).Msg("pending check failed")
			continue
		}
		if has {
			pending = true
			break
		}
	}
	if !pending {
		m.log.Debug().Msg("reconnected with nothing pending")
		return
	}

	m.log.Info().Msg("connectivity restored, triggering synchronization")
	m.TriggerSynchronization()
}

func (m *Manager) publish(s State, runID string) {
	m.feed.publish(Transition{State: s, Run: runID, At: time.Now().UTC()})
}
