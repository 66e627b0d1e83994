// ABOUTME: Repository interface for the remote session store.
// ABOUTME: Defines contract for session CRUD, filtered fetches, and audit rows.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/caretrack/internal/audit"
	"github.com/harperreed/caretrack/internal/models"
)

// ErrNotFound is returned when no session matches an id or prefix.
var ErrNotFound = errors.New("not found")

// Repository defines the remote store the write path and dashboards talk to.
// Implementations assign durable ids on create.
type Repository interface {
	// Session operations
	CreateSession(ctx context.Context, s *models.Session) (*models.Session, error)
	GetSession(ctx context.Context, idOrPrefix string) (*models.Session, error)
	FetchSessions(ctx context.Context, filter *Filter) ([]*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) (*models.Session, error)
	DeleteSession(ctx context.Context, idOrPrefix string) error

	// Audit rows
	audit.Sink
	ListAudit(ctx context.Context, limit int) ([]audit.Event, error)

	// Lifecycle
	Close() error
}

// Filterable session fields.
const (
	FieldHospital = "hospital"
	FieldLocation = "location"
	FieldLoggedBy = "logged_by"
	FieldDate     = "date"
)

// Filter is a field-equality predicate: Field must equal one of Values.
// A nil filter, or one with no values, matches every session.
type Filter struct {
	Field  string
	Values []string
}

// Where builds a filter matching sessions whose field equals any of values.
func Where(field string, values ...string) *Filter {
	return &Filter{Field: field, Values: values}
}

// IsEmpty reports whether the filter matches everything.
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Values) == 0
}

// Validate rejects filters on fields the stores cannot query.
func (f *Filter) Validate() error {
	if f.IsEmpty() {
		return nil
	}
	switch f.Field {
	case FieldHospital, FieldLocation, FieldLoggedBy, FieldDate:
		return nil
	}
	return fmt.Errorf("unsupported filter field: %q", f.Field)
}

// Matches applies the filter to a session in memory.
func (f *Filter) Matches(s *models.Session) bool {
	if f.IsEmpty() {
		return true
	}
	var v string
	switch f.Field {
	case FieldHospital:
		v = s.Hospital
	case FieldLocation:
		v = s.Location
	case FieldLoggedBy:
		v = s.LoggedBy
	case FieldDate:
		v = s.Date
	default:
		return false
	}
	for _, want := range f.Values {
		if v == want {
			return true
		}
	}
	return false
}

// String renders the filter for logs.
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "all"
	}
	return f.Field + " in [" + strings.Join(f.Values, ", ") + "]"
}
