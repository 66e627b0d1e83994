// ABOUTME: Online/offline state machine that triggers sync on reconnect.
// ABOUTME: Only an offline-to-online edge starts a run, and runs never overlap.
package connectivity

import (
	"context"
	"sync"

	"github.com/harperreed/caretrack/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// State is the monitor's view of network reachability.
type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// SyncFunc is started when connectivity is regained.
type SyncFunc func(ctx context.Context)

// Monitor tracks connectivity and fires a SyncFunc on reconnect.
type Monitor struct {
	mu     sync.Mutex
	state  State
	onSync SyncFunc

	running *semaphore.Weighted
	wg      sync.WaitGroup

	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the monitor's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithMetrics reports the online gauge.
func WithMetrics(mt *telemetry.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

// OnReconnect registers the function run on every offline-to-online edge.
func OnReconnect(fn SyncFunc) Option {
	return func(m *Monitor) { m.onSync = fn }
}

// NewMonitor creates a monitor starting in the given state.
func NewMonitor(initial State, opts ...Option) *Monitor {
	m := &Monitor{
		state:   initial,
		running: semaphore.NewWeighted(1),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.metrics.SetOnline(initial == Online)
	return m
}

// NewMonitorFromProbe seeds the initial state from a single probe.
func NewMonitorFromProbe(ctx context.Context, p Prober, opts ...Option) *Monitor {
	initial := Offline
	if Check(ctx, p) {
		initial = Online
	}
	return NewMonitor(initial, opts...)
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Online reports whether the monitor currently believes the network is reachable.
func (m *Monitor) Online() bool {
	return m.State() == Online
}

// Observe applies one platform reading. It reports whether a sync run was
// started, which happens only on an offline-to-online transition with no
// run already in flight.
func (m *Monitor) Observe(ctx context.Context, online bool) bool {
	next := Offline
	if online {
		next = Online
	}

	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if prev == next {
		return false
	}
	m.metrics.SetOnline(online)
	m.logger.Info("connectivity changed", zap.Stringer("from", prev), zap.Stringer("to", next))

	if next != Online {
		return false
	}
	return m.Trigger(ctx)
}

// Trigger starts the sync function unless a run is already in flight.
// The run outlives ctx's cancellation; Wait blocks until it returns.
func (m *Monitor) Trigger(ctx context.Context) bool {
	if m.onSync == nil {
		return false
	}
	if !m.running.TryAcquire(1) {
		m.logger.Debug("sync already running, skipping trigger")
		return false
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.running.Release(1)
		m.onSync(context.WithoutCancel(ctx))
	}()
	return true
}

// Run consumes readings until ctx is done or the channel closes.
func (m *Monitor) Run(ctx context.Context, readings <-chan bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case online, ok := <-readings:
			if !ok {
				return nil
			}
			m.Observe(ctx, online)
		}
	}
}

// Wait blocks until any in-flight sync run returns.
func (m *Monitor) Wait() {
	m.wg.Wait()
}
