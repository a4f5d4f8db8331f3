package practice

import "sync"

// Registry maps each user to their single active practice session
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Put registers s as the user's active session, replacing any previous
// one. It reports whether a session was replaced.
func (r *Registry) Put(userID int64, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.sessions[userID]
	r.sessions[userID] = s
	return replaced
}

// Get returns the user's active session
func (r *Registry) Get(userID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Remove drops the user's session, e.g. on logout
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
