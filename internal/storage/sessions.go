// ABOUTME: Session CRUD operations for SQLite storage.
// ABOUTME: Assigns durable UUIDs and server timestamps on create.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caretrack/internal/models"
)

// timeLayout is fixed-width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CreateSession stores a new session and returns it with a durable id.
// CreatedAt is kept when the caller set it (sessions queued offline) and
// stamped by the store otherwise.
func (d *DB) CreateSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	created := s.Clone()
	created.ID = uuid.New().String()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	cols := sessionColumns()
	query := fmt.Sprintf("INSERT INTO sessions (%s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders(len(cols)))

	if _, err := d.db.ExecContext(ctx, query, sessionArgs(created)...); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

// GetSession retrieves a session by ID or ID prefix.
func (d *DB) GetSession(ctx context.Context, idOrPrefix string) (*models.Session, error) {
	id, err := d.resolveSessionID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = ?", strings.Join(sessionColumns(), ", "))
	s, err := scanSession(d.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// FetchSessions returns sessions matching the filter, ordered by date then creation time.
func (d *DB) FetchSessions(ctx context.Context, filter *Filter) ([]*models.Session, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM sessions", strings.Join(sessionColumns(), ", "))
	var args []any
	if !filter.IsEmpty() {
		query += fmt.Sprintf(" WHERE %s IN (%s)", filter.Field, placeholders(len(filter.Values)))
		for _, v := range filter.Values {
			args = append(args, v)
		}
	}
	query += " ORDER BY date ASC, created_at ASC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpdateSession replaces the mutable fields of an existing session.
// ID, LoggedBy, and CreatedAt are kept from the stored record.
func (d *DB) UpdateSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	for _, col := range []string{"date", "hospital", "location", "protocol_for_use", "notes"} {
		sets = append(sets, col+" = ?")
	}
	args = append(args, s.Date, nullString(s.Hospital), nullString(s.Location),
		nullString(s.ProtocolForUse), nullString(s.Notes))
	for _, m := range models.Metrics {
		sets = append(sets, string(m.ID)+"_num = ?", string(m.ID)+"_den = ?")
		num, den := ratioArgs(s.Ratio(m.ID))
		args = append(args, num, den)
	}
	args = append(args, s.ID)

	query := fmt.Sprintf("UPDATE sessions SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}

	return d.GetSession(ctx, s.ID)
}

// DeleteSession removes a session by ID or prefix.
func (d *DB) DeleteSession(ctx context.Context, idOrPrefix string) error {
	id, err := d.resolveSessionID(ctx, idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	result, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete session: %w: %s", ErrNotFound, idOrPrefix)
	}
	return nil
}

// resolveSessionID finds the full ID from a prefix.
func (d *DB) resolveSessionID(ctx context.Context, idOrPrefix string) (string, error) {
	// If it looks like a full UUID, use it directly
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id FROM sessions WHERE id LIKE ? || '%'`, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve session ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan session ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve session ID: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple records", idOrPrefix)
	}
	return matches[0], nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession scans one row in sessionColumns order.
func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var hospital, location, protocol, notes, loggedBy sql.NullString
	var createdAt string

	ratios := make([]sql.NullInt64, 2*len(models.Metrics))
	dest := []any{&s.ID, &s.Date, &hospital, &location, &protocol, &notes, &loggedBy, &createdAt}
	for i := range ratios {
		dest = append(dest, &ratios[i])
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	s.Hospital = hospital.String
	s.Location = location.String
	s.ProtocolForUse = protocol.String
	s.Notes = notes.String
	s.LoggedBy = loggedBy.String
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	s.CreatedAt = created

	for i, m := range models.Metrics {
		num, den := ratios[2*i], ratios[2*i+1]
		if num.Valid && den.Valid {
			s.SetRatio(m.ID, models.NewRatio(int(num.Int64), int(den.Int64)))
		}
	}
	return &s, nil
}

// sessionArgs returns insert arguments in sessionColumns order.
func sessionArgs(s *models.Session) []any {
	args := []any{
		s.ID,
		s.Date,
		nullString(s.Hospital),
		nullString(s.Location),
		nullString(s.ProtocolForUse),
		nullString(s.Notes),
		nullString(s.LoggedBy),
		s.CreatedAt.UTC().Format(timeLayout),
	}
	for _, m := range models.Metrics {
		num, den := ratioArgs(s.Ratio(m.ID))
		args = append(args, num, den)
	}
	return args
}

func ratioArgs(r *models.Ratio) (any, any) {
	if r == nil {
		return nil, nil
	}
	return r.Numerator, r.Denominator
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
