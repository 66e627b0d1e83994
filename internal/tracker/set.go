// ABOUTME: In-memory session set shown to the user: synced plus pending sessions.
// ABOUTME: Safe for concurrent use by the submit path and the sync engine.
package tracker

import (
	"sync"

	"github.com/harperreed/caretrack/internal/models"
)

// SessionSet is the live, ordered collection of sessions.
type SessionSet struct {
	mu       sync.RWMutex
	sessions []*models.Session
}

// NewSessionSet creates a set holding copies of sessions.
func NewSessionSet(sessions ...*models.Session) *SessionSet {
	set := &SessionSet{}
	set.Reset(sessions)
	return set
}

// Reset replaces the contents of the set.
func (s *SessionSet) Reset(sessions []*models.Session) {
	cp := make([]*models.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess != nil {
			cp = append(cp, sess.Clone())
		}
	}
	s.mu.Lock()
	s.sessions = cp
	s.mu.Unlock()
}

// Snapshot returns copies of every session in order.
func (s *SessionSet) Snapshot() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	return out
}

// Len returns the number of sessions.
func (s *SessionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Append adds a session at the end.
func (s *SessionSet) Append(sess *models.Session) {
	if sess == nil {
		return
	}
	s.mu.Lock()
	s.sessions = append(s.sessions, sess.Clone())
	s.mu.Unlock()
}

// Get returns a copy of the session with the given id.
func (s *SessionSet) Get(id string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return nil, false
}

// Replace swaps in sess for the session with the same id.
func (s *SessionSet) Replace(sess *models.Session) bool {
	return s.ReplaceID(sess.ID, sess)
}

// ReplaceID swaps the session carrying id for durable, keeping its position.
// It reports false when no session has that id.
func (s *SessionSet) ReplaceID(id string, durable *models.Session) bool {
	if durable == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.sessions[i] = durable.Clone()
	return true
}

// Remove drops the session with the given id.
func (s *SessionSet) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	return true
}

// Pending returns copies of the sessions still carrying a temporary id.
func (s *SessionSet) Pending() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, sess := range s.sessions {
		if sess.IsPending() {
			out = append(out, sess.Clone())
		}
	}
	return out
}

func (s *SessionSet) indexLocked(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}
