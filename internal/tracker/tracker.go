// ABOUTME: Composition root for the session write path.
// ABOUTME: Routes submits online or to the pending queue and owns the sync engine.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/caretrack/internal/audit"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/queue"
	"github.com/harperreed/caretrack/internal/storage"
	"github.com/harperreed/caretrack/internal/sync"
	"github.com/harperreed/caretrack/internal/telemetry"
	"go.uber.org/zap"
)

var (
	// ErrOffline is returned for edits and deletes without connectivity.
	ErrOffline = errors.New("edits and deletes need a connection")
	// ErrPending is returned for edits and deletes of sessions that have not synced.
	ErrPending = errors.New("session has not synced yet")
)

// Connectivity reports whether the remote store is believed reachable.
type Connectivity interface {
	Online() bool
}

type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

// Tracker is the write path and the live session set behind every view.
type Tracker struct {
	remote    storage.Repository
	queue     *queue.Queue
	conn      Connectivity
	set       *SessionSet
	audit     audit.Sink
	identity  func() string
	hospitals []string
	timeout   time.Duration
	statePath string
	logger    *zap.Logger
	metrics   *telemetry.Metrics

	engine *sync.Engine
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithConnectivity sets the online signal. Without one the tracker assumes online.
func WithConnectivity(c Connectivity) Option {
	return func(t *Tracker) { t.conn = c }
}

// WithAudit sets where audit events go.
func WithAudit(s audit.Sink) Option {
	return func(t *Tracker) { t.audit = s }
}

// WithIdentity sets the function that names the current author.
func WithIdentity(fn func() string) Option {
	return func(t *Tracker) { t.identity = fn }
}

// WithHospitals limits Load to the viewer's hospitals.
func WithHospitals(hospitals ...string) Option {
	return func(t *Tracker) { t.hospitals = hospitals }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.timeout = d }
}

// WithSyncState records sync pass outcomes at path.
func WithSyncState(path string) Option {
	return func(t *Tracker) { t.statePath = path }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithMetrics sets the telemetry sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// New wires a tracker around a remote store and a pending queue.
func New(remote storage.Repository, q *queue.Queue, opts ...Option) *Tracker {
	t := &Tracker{
		remote:  remote,
		queue:   q,
		conn:    alwaysOnline{},
		set:     NewSessionSet(),
		audit:   audit.Discard,
		timeout: sync.DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.identity == nil {
		t.identity = func() string { return "" }
	}

	t.engine = &sync.Engine{
		Queue:     q,
		Remote:    remote,
		Sessions:  t.set,
		Identity:  t.identity,
		Timeout:   t.timeout,
		Audit:     t.audit,
		StatePath: t.statePath,
		Logger:    t.logger.Named("sync"),
		Metrics:   t.metrics,
	}
	return t
}

// SubmitResult is what the caller shows after a submit.
type SubmitResult struct {
	Session *models.Session
	Pending bool
}

// Load refreshes the live set from the remote store and merges pending sessions.
// When the fetch fails the set still holds the pending sessions and the error is returned.
func (t *Tracker) Load(ctx context.Context) error {
	var filter *storage.Filter
	if len(t.hospitals) > 0 {
		filter = storage.Where(storage.FieldHospital, t.hospitals...)
	}

	var remote []*models.Session
	var fetchErr error
	if t.conn.Online() {
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		remote, fetchErr = t.remote.FetchSessions(ctx, filter)
		cancel()
	} else {
		fetchErr = ErrOffline
	}

	merged := remote
	for _, e := range t.queue.List() {
		if e.Session == nil {
			continue
		}
		if filter.Matches(e.Session) {
			merged = append(merged, e.Session)
		}
	}
	t.set.Reset(merged)

	if fetchErr != nil {
		return fmt.Errorf("fetch sessions: %w", fetchErr)
	}
	return nil
}

// Submit validates a session and writes it online, falling back to the queue.
func (t *Tracker) Submit(ctx context.Context, s *models.Session) (SubmitResult, error) {
	if s == nil {
		return SubmitResult{}, fmt.Errorf("%w: no session", models.ErrValidation)
	}
	if err := s.Validate(); err != nil {
		return SubmitResult{}, err
	}

	session := s.Clone()
	session.ID = ""
	if who := t.identity(); who != "" {
		session.LoggedBy = who
	}

	if t.conn.Online() {
		online := session.Clone()
		online.CreatedAt = time.Time{}

		rctx, cancel := context.WithTimeout(ctx, t.timeout)
		created, err := t.remote.CreateSession(rctx, online)
		cancel()
		if err == nil {
			t.set.Append(created)
			t.metrics.Submitted(telemetry.ModeOnline)
			t.record(ctx, audit.NewEvent(audit.ActionCreate, created.LoggedBy, created.ID, audit.Summary(created)))
			return SubmitResult{Session: created}, nil
		}
		if errors.Is(err, models.ErrValidation) {
			return SubmitResult{}, err
		}
		t.logger.Warn("remote create failed, queueing session", zap.Error(err))
	}

	entry, err := t.queue.Enqueue(ctx, session)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("queue session: %w", err)
	}
	t.set.Append(entry.Session)
	t.metrics.Submitted(telemetry.ModeQueued)
	return SubmitResult{Session: entry.Session, Pending: true}, nil
}

// Get returns one session by id or unique id prefix. Pending sessions are
// served from the live set; synced ones need the remote store.
func (t *Tracker) Get(ctx context.Context, id string) (*models.Session, error) {
	if models.IsTemporaryID(id) {
		if s, ok := t.set.Get(id); ok {
			return s, nil
		}
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if !t.conn.Online() {
		return nil, ErrOffline
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.remote.GetSession(ctx, id)
}

// Edit replaces the mutable fields of a synced session. Last write wins.
func (t *Tracker) Edit(ctx context.Context, id string, s *models.Session) (*models.Session, error) {
	if err := t.checkWritable(id); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: no session", models.ErrValidation)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	before, err := t.remote.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	update := s.Clone()
	update.ID = before.ID
	after, err := t.remote.UpdateSession(ctx, update)
	if err != nil {
		return nil, err
	}

	if !t.set.Replace(after) {
		t.set.Append(after)
	}

	details := make(map[string]any)
	for field, change := range audit.Diff(before, after) {
		details[field] = change
	}
	t.record(ctx, audit.NewEvent(audit.ActionEdit, t.identity(), after.ID, details))
	return after, nil
}

// Delete removes a synced session.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if err := t.checkWritable(id); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	before, err := t.remote.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if err := t.remote.DeleteSession(ctx, before.ID); err != nil {
		return err
	}

	t.set.Remove(before.ID)
	t.record(ctx, audit.NewEvent(audit.ActionDelete, t.identity(), before.ID, audit.Summary(before)))
	return nil
}

// Sync runs one pass of the sync engine.
func (t *Tracker) Sync(ctx context.Context) (sync.Result, error) {
	return t.engine.Run(ctx)
}

// Sessions returns the live session set, synced and pending.
func (t *Tracker) Sessions() []*models.Session {
	return t.set.Snapshot()
}

// Set exposes the live set for reconciliation.
func (t *Tracker) Set() *SessionSet {
	return t.set
}

// Pending returns the number of queued sessions.
func (t *Tracker) Pending() int {
	return t.queue.Len()
}

// PendingEntries returns the queue contents in enqueue order.
func (t *Tracker) PendingEntries() []queue.Entry {
	return t.queue.List()
}

// Degraded reports whether queued sessions are only held in memory.
func (t *Tracker) Degraded() bool {
	return t.queue.Degraded()
}

// Online reports the connectivity signal.
func (t *Tracker) Online() bool {
	return t.conn.Online()
}

// BenchmarkPopulation fetches every session across all tenants.
func (t *Tracker) BenchmarkPopulation(ctx context.Context) ([]*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	sessions, err := t.remote.FetchSessions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch benchmark population: %w", err)
	}
	return sessions, nil
}

// AuditLog returns recent audit events, newest first.
func (t *Tracker) AuditLog(ctx context.Context, limit int) ([]audit.Event, error) {
	return t.remote.ListAudit(ctx, limit)
}

func (t *Tracker) checkWritable(id string) error {
	if models.IsTemporaryID(id) {
		return fmt.Errorf("%w: %s", ErrPending, id)
	}
	if !t.conn.Online() {
		return ErrOffline
	}
	return nil
}

// record sends an audit event. Failures are logged and never fail the caller.
func (t *Tracker) record(ctx context.Context, e audit.Event) {
	if err := t.audit.Record(ctx, e); err != nil {
		t.logger.Warn("record audit event", zap.String("action", string(e.Action)), zap.Error(err))
	}
}
