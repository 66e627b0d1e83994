// ABOUTME: Tests for the pending-write queue.
// ABOUTME: Covers ordering, idempotent removal, restart survival, and degraded mode.
package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/caretrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStorage) Load(ctx context.Context) ([]Entry, error) {
	return nil, f.loadErr
}

func (f *failingStorage) Save(ctx context.Context, entries []Entry) error {
	f.saves++
	return f.saveErr
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newSession(date, hospital string) *models.Session {
	return models.NewSession(date).WithHospital(hospital).WithRatio(models.MetricMattApplied, 3, 4)
}

func TestEnqueueStampsEntry(t *testing.T) {
	ctx := context.Background()
	q := Open(ctx, NewMemoryStorage(), WithClock(fixedClock()))

	s := newSession("2025-03-10", "Mercy")
	entry, err := q.Enqueue(ctx, s)
	require.NoError(t, err)

	assert.True(t, models.IsTemporaryID(entry.TempID))
	assert.Equal(t, entry.TempID, entry.Session.ID)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 30, 1, 0, time.UTC).UnixMilli(), entry.QueuedAt)
	assert.False(t, entry.Session.CreatedAt.IsZero())
	assert.Empty(t, s.ID, "caller's session must not be modified")

	_, err = q.Enqueue(ctx, nil)
	assert.ErrorIs(t, err, ErrNilSession)
}

func TestListPreservesEnqueueOrder(t *testing.T) {
	ctx := context.Background()
	q := Open(ctx, NewMemoryStorage())

	var ids []string
	for _, h := range []string{"A", "B", "C"} {
		e, err := q.Enqueue(ctx, newSession("2025-03-10", h))
		require.NoError(t, err)
		ids = append(ids, e.TempID)
	}

	list := q.List()
	require.Len(t, list, 3)
	for i, e := range list {
		assert.Equal(t, ids[i], e.TempID)
	}
	assert.Equal(t, "A", list[0].Session.Hospital)
	assert.Equal(t, 3, q.Len())

	// List returns copies.
	list[0].Session.Hospital = "changed"
	got, ok := q.Get(ids[0])
	require.True(t, ok)
	assert.Equal(t, "A", got.Session.Hospital)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	q := Open(ctx, storage)

	a, _ := q.Enqueue(ctx, newSession("2025-03-10", "A"))
	b, _ := q.Enqueue(ctx, newSession("2025-03-10", "B"))

	q.Remove(ctx, a.TempID)
	q.Remove(ctx, a.TempID)
	q.Remove(ctx, "pending-missing")

	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.TempID, list[0].TempID)

	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, b.TempID, persisted[0].TempID)
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	q := Open(ctx, storage)

	a, _ := q.Enqueue(ctx, newSession("2025-03-10", "A"))
	_, _ = q.Enqueue(ctx, newSession("2025-03-10", "B"))

	q.ReplaceAll(ctx, []Entry{a})
	assert.Equal(t, []string{a.TempID}, tempIDs(q.List()))

	persisted, _ := storage.Load(ctx)
	assert.Equal(t, []string{a.TempID}, tempIDs(persisted))

	q.ReplaceAll(ctx, nil)
	assert.Equal(t, 0, q.Len())
}

func TestCommitKeepsEntriesQueuedDuringPass(t *testing.T) {
	ctx := context.Background()
	q := Open(ctx, NewMemoryStorage())

	a, _ := q.Enqueue(ctx, newSession("2025-03-10", "A"))
	b, _ := q.Enqueue(ctx, newSession("2025-03-10", "B"))
	snapshot := q.List()

	late, _ := q.Enqueue(ctx, newSession("2025-03-11", "Late"))

	q.Commit(ctx, snapshot, []Entry{b})

	assert.Equal(t, []string{b.TempID, late.TempID}, tempIDs(q.List()))
	_, ok := q.Get(a.TempID)
	assert.False(t, ok)
}

func TestQueueSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "queue")

	storage, err := OpenBadger(dir)
	require.NoError(t, err)

	q := Open(ctx, storage)
	s := newSession("2025-03-10", "Mercy").WithLocation("3 North").WithNotes("night shift")
	entry, err := q.Enqueue(ctx, s)
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	q2 := Open(ctx, reopened)
	require.False(t, q2.Degraded())
	list := q2.List()
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, entry.TempID, got.TempID)
	assert.Equal(t, entry.QueuedAt, got.QueuedAt)
	assert.Equal(t, entry.TempID, got.Session.ID)
	assert.Equal(t, "2025-03-10", got.Session.Date)
	assert.Equal(t, "Mercy", got.Session.Hospital)
	assert.Equal(t, "3 North", got.Session.Location)
	assert.Equal(t, "night shift", got.Session.Notes)
	assert.Equal(t, models.NewRatio(3, 4), got.Session.MattApplied)
	assert.True(t, entry.Session.CreatedAt.Equal(got.Session.CreatedAt))
}

func TestBadgerStorageEmpty(t *testing.T) {
	storage, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	entries, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, storage.Save(context.Background(), nil))
	entries, err = storage.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDegradedSaveKeepsSessions(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{saveErr: errors.New("disk full")}

	var warnings []error
	q := Open(ctx, storage, OnDegraded(func(err error) { warnings = append(warnings, err) }))
	require.False(t, q.Degraded())

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, newSession("2025-03-10", "A"))
		require.NoError(t, err)
	}

	assert.True(t, q.Degraded())
	assert.Equal(t, 3, q.Len(), "sessions must stay in memory")
	assert.Len(t, warnings, 1, "warning is surfaced once, not per operation")
	assert.Equal(t, 3, storage.saves)
}

func TestDegradedLoad(t *testing.T) {
	ctx := context.Background()
	var warned error
	q := Open(ctx, &failingStorage{loadErr: errors.New("locked")}, OnDegraded(func(err error) { warned = err }))

	assert.True(t, q.Degraded())
	assert.EqualError(t, warned, "locked")
	assert.Equal(t, 0, q.Len())

	_, err := q.Enqueue(ctx, newSession("2025-03-10", "A"))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Degraded(), "unreadable storage is never written")
}

func TestNilStorageIsDegraded(t *testing.T) {
	q := Open(context.Background(), nil)
	assert.True(t, q.Degraded())
	_, err := q.Enqueue(context.Background(), newSession("2025-03-10", "A"))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())
}

func tempIDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.TempID)
	}
	return ids
}
