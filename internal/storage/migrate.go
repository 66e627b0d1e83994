// ABOUTME: Data migration between caretrack storage backends.
// ABOUTME: Copies sessions and audit rows from source to destination.

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Sessions    int
	AuditEvents int
}

// MigrateData copies all data from src to dst storage.
// The destination assigns new durable ids; created_at and logged_by are
// carried over unchanged. The destination should be empty before calling
// this function.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	sessions, err := src.FetchSessions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list source sessions: %w", err)
	}

	for _, s := range sessions {
		if _, err := dst.CreateSession(ctx, s); err != nil {
			return nil, fmt.Errorf("create session %s: %w", s.ID, err)
		}
		summary.Sessions++
	}

	events, err := src.ListAudit(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list source audit: %w", err)
	}

	// Replay oldest first so the destination keeps the same ordering.
	for i := len(events) - 1; i >= 0; i-- {
		if err := dst.Record(ctx, events[i]); err != nil {
			return nil, fmt.Errorf("record audit event: %w", err)
		}
		summary.AuditEvents++
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
