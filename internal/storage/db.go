// ABOUTME: SQLite-backed remote session store: connection and lifecycle.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required).
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the session store's file inside a data directory.
const FileName = "caretrack.db"

// DB is the shared session store. The CLI, a running watch and the MCP
// server may all hold it open at once, so writers wait on the lock.
type DB struct {
	db   *sql.DB
	path string
}

var _ Repository = (*DB)(nil)

// PathIn returns the store location inside dataDir.
func PathIn(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Open opens or creates the session store at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	d := &DB{db: conn, path: path}
	if err := d.configurePragmas(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}

	// The file exists once the first pragma ran. Care records and their
	// audit trail are readable by the owner only.
	if err := os.Chmod(path, 0600); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("restrict session store permissions: %w", err)
	}
	if err := d.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return d, nil
}

// DataDir returns the default data directory under the XDG data home.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "caretrack")
}

// Path is the file the store was opened from.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// configurePragmas tunes the connection for several concurrent processes.
// A session acknowledged to a nurse, or synced off the queue, must survive
// power loss, so commits are fully synchronous.
func (d *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = FULL",
	}
	for _, pragma := range pragmas {
		if _, err := d.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}
