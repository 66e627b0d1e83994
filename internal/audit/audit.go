// ABOUTME: Audit events emitted for every session create, edit, and delete.
// ABOUTME: Defines the Sink contract, field diffs, and zap/fan-out sinks.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/caretrack/internal/models"
	"go.uber.org/zap"
)

// Action names an audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Event is one audit record. Details is free-form structured data.
type Event struct {
	Action    Action         `json:"action"`
	Actor     string         `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// NewEvent builds an event stamped with the current time.
func NewEvent(action Action, actor, sessionID string, details map[string]any) Event {
	return Event{
		Action:    action,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Details:   details,
	}
}

// Change is the before/after value of one field.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff lists the fields that differ between two snapshots of a session.
// Metric ratios are compared as "num/den" strings; an unset ratio is nil.
func Diff(before, after *models.Session) map[string]Change {
	changes := make(map[string]Change)
	if before == nil || after == nil {
		return changes
	}

	str := func(name, a, b string) {
		if a != b {
			changes[name] = Change{From: a, To: b}
		}
	}
	str("date", before.Date, after.Date)
	str("hospital", before.Hospital, after.Hospital)
	str("location", before.Location, after.Location)
	str("protocol_for_use", before.ProtocolForUse, after.ProtocolForUse)
	str("notes", before.Notes, after.Notes)

	for _, m := range models.Metrics {
		a, b := ratioValue(before.Ratio(m.ID)), ratioValue(after.Ratio(m.ID))
		if a != b {
			changes[string(m.ID)] = Change{From: a, To: b}
		}
	}
	return changes
}

func ratioValue(r *models.Ratio) any {
	if r == nil {
		return nil
	}
	return r.String()
}

// Summary captures the identifying fields of a session for create/delete events.
func Summary(s *models.Session) map[string]any {
	if s == nil {
		return nil
	}
	d := map[string]any{
		"date":     s.Date,
		"hospital": s.Hospital,
		"location": s.Location,
	}
	for _, m := range models.Metrics {
		if r := s.Ratio(m.ID); r != nil {
			d[string(m.ID)] = r.String()
		}
	}
	return d
}

// LogSink writes audit events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("audit")}
}

// Record logs the event at info level.
func (l *LogSink) Record(ctx context.Context, e Event) error {
	l.logger.Info("audit",
		zap.String("action", string(e.Action)),
		zap.String("actor", e.Actor),
		zap.Time("timestamp", e.Timestamp),
		zap.String("session_id", e.SessionID),
		zap.Any("details", e.Details))
	return nil
}

// Multi fans an event out to several sinks and joins their errors.
type Multi []Sink

// Record sends the event to every sink, even if earlier ones fail.
func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Event) error { return nil }
