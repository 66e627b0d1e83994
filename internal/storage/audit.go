// ABOUTME: Audit row persistence for SQLite storage.
// ABOUTME: Implements audit.Sink and a newest-first listing.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/caretrack/internal/audit"
)

// Record stores one audit event.
func (d *DB) Record(ctx context.Context, e audit.Event) error {
	var details any
	if len(e.Details) > 0 {
		data, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = string(data)
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO audit_log (action, actor, timestamp, session_id, details) VALUES (?, ?, ?, ?, ?)`,
		string(e.Action), nullString(e.Actor), ts.UTC().Format(timeLayout), nullString(e.SessionID), details)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// ListAudit returns audit events, newest first.
func (d *DB) ListAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `SELECT action, actor, timestamp, session_id, details FROM audit_log ORDER BY timestamp DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var action, ts string
		var actor, sessionID, details sql.NullString
		if err := rows.Scan(&action, &actor, &ts, &sessionID, &details); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.Action = audit.Action(action)
		e.Actor = actor.String
		e.SessionID = sessionID.String
		stamp, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp: %w", err)
		}
		e.Timestamp = stamp
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
