// ABOUTME: Session CRUD operations for Charm KV storage.
// ABOUTME: Uses type-prefixed keys and client-side filtering.
package charm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/storage"
)

// CreateSession stores a new session under a fresh durable id.
func (c *Client) CreateSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created := s.Clone()
	created.ID = uuid.New().String()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	data, err := marshalJSON(created)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := c.set(SessionPrefix+created.ID, data); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

// GetSession retrieves a session by ID or ID prefix.
func (c *Client) GetSession(ctx context.Context, idOrPrefix string) (*models.Session, error) {
	data, err := c.getByIDPrefix(SessionPrefix, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s, err := unmarshalJSON[models.Session](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return s, nil
}

// FetchSessions retrieves sessions matching the filter.
// Results are sorted by date, then creation time, ascending.
func (c *Client) FetchSessions(ctx context.Context, filter *storage.Filter) ([]*models.Session, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	allData, err := c.listByPrefix(SessionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []*models.Session
	for key, data := range allData {
		s, err := unmarshalJSON[models.Session](data)
		if err != nil {
			continue // Skip invalid entries
		}
		if s.ID == "" {
			s.ID = extractID(key, SessionPrefix)
		}
		if !filter.Matches(s) {
			continue
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})

	return sessions, nil
}

// UpdateSession replaces the mutable fields of an existing session.
// ID, LoggedBy, and CreatedAt are kept from the stored record.
func (c *Client) UpdateSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	existing, err := c.GetSession(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	updated := s.Clone()
	updated.ID = existing.ID
	updated.LoggedBy = existing.LoggedBy
	updated.CreatedAt = existing.CreatedAt

	data, err := marshalJSON(updated)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := c.set(SessionPrefix+updated.ID, data); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return updated, nil
}

// DeleteSession removes a session by ID or prefix.
func (c *Client) DeleteSession(ctx context.Context, idOrPrefix string) error {
	if err := c.deleteByIDPrefix(SessionPrefix, idOrPrefix); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
