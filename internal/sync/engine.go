// ABOUTME: Sync engine that drains the pending queue into the remote store.
// ABOUTME: One pass at a time, entries in enqueue order, failures retried next pass.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/harperreed/caretrack/internal/audit"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/queue"
	"github.com/harperreed/caretrack/internal/telemetry"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each remote create.
const DefaultTimeout = 30 * time.Second

// Creator is the part of the remote store the engine writes through.
type Creator interface {
	CreateSession(ctx context.Context, s *models.Session) (*models.Session, error)
}

// Reconciler swaps a pending session for its durable copy in the live set.
type Reconciler interface {
	ReplaceID(tempID string, durable *models.Session) bool
}

// Result summarizes one pass.
type Result struct {
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}

// Message renders the user-facing summary of a pass.
func (r Result) Message() string {
	switch {
	case r.Synced == 0 && r.Remaining == 0:
		return "nothing to sync"
	case r.Remaining == 0:
		return fmt.Sprintf("synced %d %s", r.Synced, plural(r.Synced))
	case r.Synced == 0:
		return fmt.Sprintf("%d %s pending", r.Remaining, plural(r.Remaining))
	default:
		return fmt.Sprintf("synced %d %s, %d pending", r.Synced, plural(r.Synced), r.Remaining)
	}
}

func plural(n int) string {
	if n == 1 {
		return "session"
	}
	return "sessions"
}

// Engine replays queued sessions against the remote store.
type Engine struct {
	Queue    *queue.Queue
	Remote   Creator
	Sessions Reconciler
	// Identity returns the display name stamped as LoggedBy at sync time.
	Identity  func() string
	Timeout   time.Duration
	Audit     audit.Sink
	StatePath string
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics

	mu gosync.Mutex
}

// Run performs one sync pass. Per-entry failures are counted, not returned;
// the error is non-nil only when the engine is misconfigured. A started pass
// runs to completion: cancelling ctx does not abandon entries, each create
// is bounded by Timeout instead.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	if e.Queue == nil || e.Remote == nil {
		return Result{}, errors.New("sync engine needs a queue and a remote store")
	}
	logger := e.logger()

	snapshot := e.Queue.List()
	if len(snapshot) == 0 {
		return Result{}, nil
	}

	actor := ""
	if e.Identity != nil {
		actor = e.Identity()
	}

	var result Result
	var retry []queue.Entry
	for _, entry := range snapshot {
		created, err := e.push(ctx, entry, actor)
		if err != nil {
			logger.Warn("sync entry failed", zap.String("temp_id", entry.TempID), zap.Error(err))
			retry = append(retry, entry)
			continue
		}

		result.Synced++
		if e.Sessions != nil {
			e.Sessions.ReplaceID(entry.TempID, created)
		}
		e.record(ctx, entry, created)
	}

	e.Queue.Commit(ctx, snapshot, retry)

	result.Failed = len(retry)
	result.Remaining = e.Queue.Len()
	e.Metrics.SyncPass(result.Synced, result.Failed)
	e.Metrics.SetPending(result.Remaining)
	logger.Info("sync pass finished",
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
		zap.Int("remaining", result.Remaining))

	if e.StatePath != "" {
		if err := RecordPass(e.StatePath, result, time.Now()); err != nil {
			logger.Warn("save sync state", zap.Error(err))
		}
	}

	return result, nil
}

// push creates one queued session remotely under the per-entry timeout.
func (e *Engine) push(ctx context.Context, entry queue.Entry, actor string) (*models.Session, error) {
	if entry.Session == nil {
		return nil, errors.New("queued entry has no session")
	}

	s := entry.Session.Clone()
	s.ID = ""
	if actor != "" {
		s.LoggedBy = actor
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return e.Remote.CreateSession(ctx, s)
}

// record emits the create audit event. Audit failures never fail the pass.
func (e *Engine) record(ctx context.Context, entry queue.Entry, created *models.Session) {
	if e.Audit == nil {
		return
	}
	details := audit.Summary(created)
	details["temp_id"] = entry.TempID
	details["queued_at"] = time.UnixMilli(entry.QueuedAt).UTC().Format(time.RFC3339)

	ev := audit.NewEvent(audit.ActionCreate, created.LoggedBy, created.ID, details)
	if err := e.Audit.Record(ctx, ev); err != nil {
		e.logger().Warn("record audit event", zap.String("session_id", created.ID), zap.Error(err))
	}
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
