// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines the sessions table (one num/den column pair per metric) and audit_log.
package storage

import (
	"strings"

	"github.com/harperreed/caretrack/internal/models"
)

// baseColumns are the non-metric session columns, in scan order.
var baseColumns = []string{
	"id", "date", "hospital", "location", "protocol_for_use", "notes", "logged_by", "created_at",
}

// metricColumns returns the numerator/denominator column pair for every metric.
func metricColumns() []string {
	cols := make([]string, 0, 2*len(models.Metrics))
	for _, m := range models.Metrics {
		cols = append(cols, string(m.ID)+"_num", string(m.ID)+"_den")
	}
	return cols
}

// sessionColumns is every session column, in scan order.
func sessionColumns() []string {
	return append(append([]string{}, baseColumns...), metricColumns()...)
}

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	var b strings.Builder
	b.WriteString(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		hospital TEXT,
		location TEXT,
		protocol_for_use TEXT,
		notes TEXT,
		logged_by TEXT,
		created_at TEXT NOT NULL`)
	for _, col := range metricColumns() {
		b.WriteString(",\n\t\t" + col + " INTEGER")
	}
	b.WriteString(`
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		actor TEXT,
		timestamp TEXT NOT NULL,
		session_id TEXT,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date, created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_hospital ON sessions(hospital);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp DESC);
	`)

	_, err := d.db.Exec(b.String())
	return err
}
