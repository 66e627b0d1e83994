// ABOUTME: Local pending-write queue for sessions created while offline.
// ABOUTME: Ordered, restart-surviving, degrades to memory when storage fails.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/telemetry"
	"go.uber.org/zap"
)

// ErrNilSession is returned when Enqueue is called without a session.
var ErrNilSession = errors.New("enqueue: nil session")

// Entry is a session waiting to be written to the remote store.
type Entry struct {
	TempID   string          `json:"temp_id"`
	QueuedAt int64           `json:"queued_at"` // epoch milliseconds
	Session  *models.Session `json:"session"`
}

// Storage persists the full ordered list of entries.
type Storage interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Queue is the in-memory, ordered view of pending entries mirrored to Storage.
// When Storage fails the queue keeps serving from memory; entries survive
// for the life of the process but not a restart.
type Queue struct {
	mu       sync.Mutex
	storage  Storage
	entries  []Entry
	degraded bool
	warned   bool

	onDegraded func(error)
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithMetrics sets the telemetry sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// OnDegraded registers a callback fired once, the first time storage fails.
// The callback runs with the queue locked and must not call back into it.
func OnDegraded(fn func(error)) Option {
	return func(q *Queue) { q.onDegraded = fn }
}

// Open loads persisted entries and returns a ready queue.
// A load failure puts the queue in degraded mode instead of failing.
func Open(ctx context.Context, storage Storage, opts ...Option) *Queue {
	q := &Queue{
		storage: storage,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if storage == nil {
		q.degradeLocked(errors.New("no queue storage configured"))
	} else if entries, err := storage.Load(ctx); err != nil {
		// Writing over a store we could not read would clobber its entries.
		q.storage = nil
		q.degradeLocked(err)
	} else {
		q.entries = entries
	}
	q.metrics.SetPending(len(q.entries))
	return q
}

// Enqueue appends a session under a fresh temporary id. It never touches the network.
// The stored session carries the temp id; the caller's session is not modified.
func (q *Queue) Enqueue(ctx context.Context, s *models.Session) (Entry, error) {
	if s == nil {
		return Entry{}, ErrNilSession
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	id := models.NewTempID()
	for q.indexLocked(id) >= 0 {
		id = models.NewTempID()
	}

	now := q.now()
	session := s.Clone()
	session.ID = id
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now.UTC()
	}

	entry := Entry{TempID: id, QueuedAt: now.UnixMilli(), Session: session}
	q.entries = append(q.entries, entry)
	q.persistLocked(ctx)

	q.logger.Debug("session queued",
		zap.String("temp_id", id),
		zap.Int("pending", len(q.entries)))
	return cloneEntry(entry), nil
}

// List returns a copy of the pending entries in enqueue order.
func (q *Queue) List() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneEntries(q.entries)
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Get returns the entry with the given temp id.
func (q *Queue) Get(tempID string) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexLocked(tempID)
	if i < 0 {
		return Entry{}, false
	}
	return cloneEntry(q.entries[i]), true
}

// Remove deletes one entry. Removing an absent id is a no-op.
func (q *Queue) Remove(ctx context.Context, tempID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(tempID)
	if i < 0 {
		return
	}
	q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
	q.persistLocked(ctx)
}

// ReplaceAll overwrites the full set of entries.
func (q *Queue) ReplaceAll(ctx context.Context, entries []Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.replaceAllLocked(ctx, entries)
}

// Commit settles a sync pass. snapshot is what the pass read at its start and
// retry is the subset that failed. The persisted set becomes retry followed by
// any entry enqueued after the snapshot was taken.
func (q *Queue) Commit(ctx context.Context, snapshot, retry []Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	seen := make(map[string]struct{}, len(snapshot))
	for _, e := range snapshot {
		seen[e.TempID] = struct{}{}
	}

	keep := cloneEntries(retry)
	for _, e := range q.entries {
		if _, ok := seen[e.TempID]; !ok {
			keep = append(keep, e)
		}
	}
	q.replaceAllLocked(ctx, keep)
}

// Degraded reports whether the queue has lost durable storage.
func (q *Queue) Degraded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.degraded
}

func (q *Queue) replaceAllLocked(ctx context.Context, entries []Entry) {
	q.entries = cloneEntries(entries)
	q.persistLocked(ctx)
}

func (q *Queue) persistLocked(ctx context.Context) {
	q.metrics.SetPending(len(q.entries))
	if q.storage == nil {
		return
	}
	if err := q.storage.Save(ctx, cloneEntries(q.entries)); err != nil {
		q.degradeLocked(err)
		return
	}
	q.degraded = false
}

func (q *Queue) degradeLocked(err error) {
	q.degraded = true
	if q.warned {
		return
	}
	q.warned = true
	q.logger.Warn("pending queue storage unavailable; queued sessions will not survive a restart",
		zap.Error(err))
	if q.onDegraded != nil {
		q.onDegraded(err)
	}
}

func (q *Queue) indexLocked(tempID string) int {
	for i, e := range q.entries {
		if e.TempID == tempID {
			return i
		}
	}
	return -1
}

func cloneEntry(e Entry) Entry {
	if e.Session != nil {
		e.Session = e.Session.Clone()
	}
	return e
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloneEntry(e))
	}
	return out
}
