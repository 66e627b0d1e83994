// ABOUTME: Tests for the SQLite Repository implementation.
// ABOUTME: Verifies session CRUD, prefix lookup, filtering, and audit rows.
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/caretrack/internal/audit"
	"github.com/harperreed/caretrack/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "caretrack.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenConfiguresStore(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(PathIn(filepath.Join(dir, "nested")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if want := filepath.Join(dir, "nested", FileName); db.Path() != want {
		t.Errorf("Path() = %q, want %q", db.Path(), want)
	}

	var mode string
	if err := db.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	var synchronous int
	if err := db.db.QueryRow("PRAGMA synchronous").Scan(&synchronous); err != nil {
		t.Fatalf("read synchronous: %v", err)
	}
	if synchronous != 2 {
		t.Errorf("synchronous = %d, want 2 (FULL)", synchronous)
	}

	info, err := os.Stat(db.Path())
	if err != nil {
		t.Fatalf("stat store: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("store permissions = %o, want 600", perm)
	}
}

func newSession(date, hospital string) *models.Session {
	return models.NewSession(date).
		WithHospital(hospital).
		WithLocation("ICU").
		WithRatio(models.MetricMattApplied, 9, 10).
		WithRatio(models.MetricAirSupply, 3, 4)
}

func TestCreateAndGetSession(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	s := newSession("2024-03-05", "St. Mary")
	s.LoggedBy = "nurse@example.com"

	created, err := db.CreateSession(ctx, s)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.ID == "" || models.IsTemporaryID(created.ID) {
		t.Fatalf("expected durable id, got %q", created.ID)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
	if s.ID != "" {
		t.Error("CreateSession must not mutate its argument")
	}

	got, err := db.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Hospital != "St. Mary" || got.Location != "ICU" || got.LoggedBy != "nurse@example.com" {
		t.Errorf("unexpected session: %+v", got)
	}
	if r := got.Ratio(models.MetricMattApplied); r == nil || r.Numerator != 9 || r.Denominator != 10 {
		t.Errorf("matt_applied mismatch: got %v", r)
	}
	if r := got.Ratio(models.MetricWedgesApplied); r != nil {
		t.Errorf("expected unset wedges_applied, got %v", r)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateSessionKeepsClientTimestamp(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	queuedAt := time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)
	s := newSession("2024-03-05", "St. Mary")
	s.CreatedAt = queuedAt

	created, err := db.CreateSession(ctx, s)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	got, err := db.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.CreatedAt.Equal(queuedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, queuedAt)
	}
}

func TestCreateSessionRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)

	s := models.NewSession("").WithHospital("St. Mary")
	if _, err := db.CreateSession(context.Background(), s); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestGetSessionByPrefix(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	created, err := db.CreateSession(ctx, newSession("2024-03-05", "St. Mary"))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := db.GetSession(ctx, created.ID[:8])
	if err != nil {
		t.Fatalf("GetSession by prefix failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID mismatch: got %v, want %v", got.ID, created.ID)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSession(context.Background(), "deadbeef")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSessionRejectsCorruptTimestamp(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.CreateSession(ctx, newSession("2025-01-10", "Mercy"))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := db.db.ExecContext(ctx, `UPDATE sessions SET created_at = ? WHERE id = ?`, "yesterday", created.ID); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	_, err = db.GetSession(ctx, created.ID)
	if err == nil || !strings.Contains(err.Error(), "parse created_at") {
		t.Errorf("expected created_at parse error, got %v", err)
	}
}

func TestFetchSessionsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	for _, s := range []*models.Session{
		newSession("2024-03-07", "St. Mary"),
		newSession("2024-03-05", "General"),
		newSession("2024-03-06", "St. Mary"),
		newSession("2024-03-04", "Mercy"),
	} {
		if _, err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	all, err := db.FetchSessions(ctx, nil)
	if err != nil {
		t.Fatalf("FetchSessions failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Date > all[i].Date {
			t.Errorf("sessions not in date order: %s before %s", all[i-1].Date, all[i].Date)
		}
	}

	filtered, err := db.FetchSessions(ctx, Where(FieldHospital, "St. Mary", "Mercy"))
	if err != nil {
		t.Fatalf("FetchSessions filtered failed: %v", err)
	}
	if len(filtered) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(filtered))
	}
	for _, s := range filtered {
		if s.Hospital == "General" {
			t.Errorf("filter leaked session from %s", s.Hospital)
		}
	}
}

func TestFetchSessionsRejectsUnknownField(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.FetchSessions(context.Background(), Where("notes", "x")); err == nil {
		t.Error("expected error for unsupported filter field")
	}
}

func TestUpdateSession(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	created, err := db.CreateSession(ctx, newSession("2024-03-05", "St. Mary"))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	edit := created.Clone()
	edit.Notes = "rechecked"
	edit.SetRatio(models.MetricMattApplied, nil)
	edit.SetRatio(models.MetricWedgeOffload, models.NewRatio(1, 2))

	updated, err := db.UpdateSession(ctx, edit)
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if updated.Notes != "rechecked" {
		t.Errorf("Notes = %q, want rechecked", updated.Notes)
	}
	if updated.Ratio(models.MetricMattApplied) != nil {
		t.Error("expected matt_applied to be cleared")
	}
	if r := updated.Ratio(models.MetricWedgeOffload); r == nil || r.Numerator != 1 {
		t.Errorf("wedge_offload mismatch: got %v", r)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("UpdateSession must keep CreatedAt")
	}
}

func TestUpdateSessionNotFound(t *testing.T) {
	db := setupTestDB(t)

	s := newSession("2024-03-05", "St. Mary")
	s.ID = "00000000-0000-0000-0000-000000000000"
	if _, err := db.UpdateSession(context.Background(), s); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	created, err := db.CreateSession(ctx, newSession("2024-03-05", "St. Mary"))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := db.DeleteSession(ctx, created.ID[:8]); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := db.GetSession(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.DeleteSession(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAuditRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	first := audit.Event{
		Action:    audit.ActionCreate,
		Actor:     "a@example.com",
		Timestamp: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		SessionID: "s1",
	}
	second := audit.Event{
		Action:    audit.ActionEdit,
		Actor:     "b@example.com",
		Timestamp: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		SessionID: "s1",
		Details:   map[string]any{"notes": "changed"},
	}
	for _, e := range []audit.Event{first, second} {
		if err := db.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	events, err := db.ListAudit(ctx, 0)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Action != audit.ActionEdit || events[0].Details["notes"] != "changed" {
		t.Errorf("expected newest edit first, got %+v", events[0])
	}
	if !events[1].Timestamp.Equal(first.Timestamp) {
		t.Errorf("timestamp mismatch: got %v", events[1].Timestamp)
	}

	limited, err := db.ListAudit(ctx, 1)
	if err != nil {
		t.Fatalf("ListAudit limited failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 event, got %d", len(limited))
	}
}
