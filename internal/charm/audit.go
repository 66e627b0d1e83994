// ABOUTME: Audit event storage for Charm KV.
// ABOUTME: Keys sort by timestamp so listings need no extra index.
package charm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caretrack/internal/audit"
)

// auditKeyLayout is fixed-width so keys order by time.
const auditKeyLayout = "20060102T150405.000000000Z"

// Record stores one audit event.
func (c *Client) Record(ctx context.Context, e audit.Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := marshalJSON(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := AuditPrefix + e.Timestamp.UTC().Format(auditKeyLayout) + ":" + uuid.New().String()
	if err := c.set(key, data); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// ListAudit returns audit events, newest first.
func (c *Client) ListAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	allData, err := c.listByPrefix(AuditPrefix)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}

	keys := make([]string, 0, len(allData))
	for key := range allData {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var events []audit.Event
	for _, key := range keys {
		e, err := unmarshalJSON[audit.Event](allData[key])
		if err != nil {
			continue // Skip invalid entries
		}
		events = append(events, *e)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}
