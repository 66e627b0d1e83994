// ABOUTME: Unit tests for Charm-based session and audit storage.
// ABOUTME: Runs the client against an in-memory KV double.
package charm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/caretrack/internal/audit"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memKV is an in-memory stand-in for *kv.KV.
type memKV struct {
	mu       sync.Mutex
	data     map[string][]byte
	readOnly bool
	syncs    int
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, errors.New("missing key")
	}
	return v, nil
}

func (m *memKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memKV) Keys() ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys [][]byte
	for k := range m.data {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

func (m *memKV) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs++
	return nil
}

func (m *memKV) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

func (m *memKV) IsReadOnly() bool { return m.readOnly }
func (m *memKV) Close() error     { return nil }

func newTestClient() (*Client, *memKV) {
	kv := newMemKV()
	return newClient(kv, true), kv
}

func TestKeyPrefixes(t *testing.T) {
	assert.Equal(t, "session:", SessionPrefix)
	assert.Equal(t, "audit:", AuditPrefix)
}

func TestCreateAndGetSession(t *testing.T) {
	ctx := context.Background()
	c, kv := newTestClient()

	s := models.NewSession("2024-03-05").WithHospital("St. Mary").WithRatio(models.MetricAirSupply, 2, 4)
	created, err := c.CreateSession(ctx, s)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Empty(t, s.ID, "argument must not be mutated")
	assert.Equal(t, 1, kv.syncs, "write should trigger a cloud sync")

	got, err := c.GetSession(ctx, created.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "2/4", got.Ratio(models.MetricAirSupply).String())
}

func TestGetSessionNotFound(t *testing.T) {
	c, _ := newTestClient()

	_, err := c.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFetchSessionsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()

	for _, s := range []*models.Session{
		models.NewSession("2024-03-07").WithHospital("St. Mary"),
		models.NewSession("2024-03-05").WithHospital("General"),
		models.NewSession("2024-03-06").WithHospital("St. Mary"),
	} {
		_, err := c.CreateSession(ctx, s)
		require.NoError(t, err)
	}

	got, err := c.FetchSessions(ctx, storage.Where(storage.FieldHospital, "St. Mary"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-06", got[0].Date)
	assert.Equal(t, "2024-03-07", got[1].Date)

	all, err := c.FetchSessions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateSessionKeepsIdentityFields(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()

	orig := models.NewSession("2024-03-05").WithHospital("St. Mary")
	orig.LoggedBy = "a@example.com"
	created, err := c.CreateSession(ctx, orig)
	require.NoError(t, err)

	edit := created.Clone()
	edit.Notes = "rechecked"
	edit.LoggedBy = "someone-else"
	edit.CreatedAt = time.Time{}

	updated, err := c.UpdateSession(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, "rechecked", updated.Notes)
	assert.Equal(t, "a@example.com", updated.LoggedBy)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()

	created, err := c.CreateSession(ctx, models.NewSession("2024-03-05"))
	require.NoError(t, err)

	require.NoError(t, c.DeleteSession(ctx, created.ID))
	assert.ErrorIs(t, c.DeleteSession(ctx, created.ID), storage.ErrNotFound)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	c, kv := newTestClient()
	kv.readOnly = true

	_, err := c.CreateSession(context.Background(), models.NewSession("2024-03-05"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "locked"))
}

func TestAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient()

	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	for i, a := range []audit.Action{audit.ActionCreate, audit.ActionEdit, audit.ActionDelete} {
		e := audit.Event{Action: a, Actor: "a@example.com", Timestamp: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, c.Record(ctx, e))
	}

	events, err := c.ListAudit(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionDelete, events[0].Action)
	assert.Equal(t, audit.ActionEdit, events[1].Action)
}
