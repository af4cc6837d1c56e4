package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miraclemessages/mm-case-api/models"
)

// Registry holds the open sessions by id
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Start opens a new session with an empty case
func (r *Registry) Start(volunteer models.Volunteer, source models.Source) *Session {
	s := newSession(uuid.New().String(), volunteer, source, time.Now())
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes a session
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len is the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Purge closes every session idle since before cutoff and returns how many
// were closed. Sessions with a submission in flight are kept.
func (r *Registry) Purge(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.Submitting() || !s.LastActive().Before(cutoff) {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}
