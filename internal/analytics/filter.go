// ABOUTME: Session filtering by hospital and inclusive date range.
// ABOUTME: Dates compare as zero-padded YYYY-MM-DD strings.
package analytics

import "github.com/harperreed/caretrack/internal/models"

// AllHospitals disables the hospital filter.
const AllHospitals = "All"

// Filter selects sessions for a view. Empty fields are inactive.
type Filter struct {
	Hospital string `json:"hospital,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

// Match reports whether a session passes every active filter.
func (f Filter) Match(s *models.Session) bool {
	if s == nil {
		return false
	}
	if f.Hospital != "" && f.Hospital != AllHospitals && s.Hospital != f.Hospital {
		return false
	}
	if f.From != "" && s.Date < f.From {
		return false
	}
	if f.To != "" && s.Date > f.To {
		return false
	}
	return true
}

// Apply returns the sessions passing f, in input order.
func Apply(sessions []*models.Session, f Filter) []*models.Session {
	out := make([]*models.Session, 0, len(sessions))
	for _, s := range sessions {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Hospitals lists distinct non-empty hospitals in first-seen order.
func Hospitals(sessions []*models.Session) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sessions {
		if s == nil || s.Hospital == "" || seen[s.Hospital] {
			continue
		}
		seen[s.Hospital] = true
		out = append(out, s.Hospital)
	}
	return out
}
