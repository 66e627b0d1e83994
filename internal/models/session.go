// ABOUTME: Session model for one compliance-logging event.
// ABOUTME: Holds visit attributes and one optional ratio per compliance metric.
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DateLayout is the calendar-date format used for Session.Date.
const DateLayout = "2006-01-02"

// TempIDPrefix marks ids minted locally for sessions that have not synced yet.
const TempIDPrefix = "pending-"

// ErrValidation is returned when a session is rejected before submission.
var ErrValidation = errors.New("invalid session")

// Ratio is a numerator/denominator pair for one metric on one session.
type Ratio struct {
	Numerator   int `json:"num" yaml:"num"`
	Denominator int `json:"den" yaml:"den"`
}

// NewRatio returns a pointer to a Ratio.
func NewRatio(num, den int) *Ratio {
	return &Ratio{Numerator: num, Denominator: den}
}

// ParseRatio parses "num/den", e.g. "7/9".
func ParseRatio(s string) (*Ratio, error) {
	numStr, denStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return nil, fmt.Errorf("invalid ratio %q: want num/den", s)
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return nil, fmt.Errorf("invalid numerator %q: %w", numStr, err)
	}
	den, err := strconv.Atoi(strings.TrimSpace(denStr))
	if err != nil {
		return nil, fmt.Errorf("invalid denominator %q: %w", denStr, err)
	}
	return NewRatio(num, den), nil
}

// String renders the ratio as "num/den".
func (r *Ratio) String() string {
	if r == nil {
		return "—"
	}
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Session is one compliance-logging visit.
type Session struct {
	ID             string    `json:"id" yaml:"id"`
	Date           string    `json:"date" yaml:"date"`
	Hospital       string    `json:"hospital,omitempty" yaml:"hospital,omitempty"`
	Location       string    `json:"location,omitempty" yaml:"location,omitempty"`
	ProtocolForUse string    `json:"protocol_for_use,omitempty" yaml:"protocol_for_use,omitempty"`
	Notes          string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	LoggedBy       string    `json:"logged_by,omitempty" yaml:"logged_by,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`

	MattApplied     *Ratio `json:"matt_applied,omitempty" yaml:"matt_applied,omitempty"`
	WedgesApplied   *Ratio `json:"wedges_applied,omitempty" yaml:"wedges_applied,omitempty"`
	TurningCriteria *Ratio `json:"turning_criteria,omitempty" yaml:"turning_criteria,omitempty"`
	MattProper      *Ratio `json:"matt_proper,omitempty" yaml:"matt_proper,omitempty"`
	WedgesInRoom    *Ratio `json:"wedges_in_room,omitempty" yaml:"wedges_in_room,omitempty"`
	WedgeOffload    *Ratio `json:"wedge_offload,omitempty" yaml:"wedge_offload,omitempty"`
	AirSupply       *Ratio `json:"air_supply,omitempty" yaml:"air_supply,omitempty"`
}

// NewSession creates a session for the given calendar date.
func NewSession(date string) *Session {
	return &Session{Date: date}
}

// WithHospital sets the hospital.
func (s *Session) WithHospital(h string) *Session {
	s.Hospital = h
	return s
}

// WithLocation sets the location or unit.
func (s *Session) WithLocation(l string) *Session {
	s.Location = l
	return s
}

// WithProtocol sets the protocol for use.
func (s *Session) WithProtocol(p string) *Session {
	s.ProtocolForUse = p
	return s
}

// WithNotes sets notes on the session.
func (s *Session) WithNotes(n string) *Session {
	s.Notes = n
	return s
}

// WithRatio sets one metric ratio.
func (s *Session) WithRatio(id MetricID, num, den int) *Session {
	s.SetRatio(id, NewRatio(num, den))
	return s
}

// field returns the address of the ratio field for a metric.
func (s *Session) field(id MetricID) **Ratio {
	switch id {
	case MetricMattApplied:
		return &s.MattApplied
	case MetricWedgesApplied:
		return &s.WedgesApplied
	case MetricTurningCriteria:
		return &s.TurningCriteria
	case MetricMattProper:
		return &s.MattProper
	case MetricWedgesInRoom:
		return &s.WedgesInRoom
	case MetricWedgeOffload:
		return &s.WedgeOffload
	case MetricAirSupply:
		return &s.AirSupply
	}
	return nil
}

// Ratio returns the ratio recorded for a metric, or nil when unset.
func (s *Session) Ratio(id MetricID) *Ratio {
	f := s.field(id)
	if f == nil {
		return nil
	}
	return *f
}

// SetRatio records a ratio for a metric. A nil ratio clears it.
func (s *Session) SetRatio(id MetricID, r *Ratio) {
	if f := s.field(id); f != nil {
		*f = r
	}
}

// IsPending reports whether the session still carries a temporary id.
func (s *Session) IsPending() bool {
	return IsTemporaryID(s.ID)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	for _, m := range Metrics {
		if r := s.Ratio(m.ID); r != nil {
			rc := *r
			c.SetRatio(m.ID, &rc)
		}
	}
	return &c
}

// Validate checks required fields before a session is written or queued.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrValidation, s.Date)
	}
	for _, m := range Metrics {
		r := s.Ratio(m.ID)
		if r == nil {
			continue
		}
		if r.Numerator < 0 || r.Denominator < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, m.ID)
		}
	}
	return nil
}

// NewTempID mints a temporary id for a queued session.
// ULIDs sort by creation time and carry 80 bits of randomness.
func NewTempID() string {
	return TempIDPrefix + ulid.Make().String()
}

// IsTemporaryID reports whether id was minted locally by NewTempID.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
