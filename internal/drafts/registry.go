package drafts

import (
	"context"
	"sync"
	"time"

	"maremio_backend/internal/drafts/ports"
	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
)

const msgSessionNotFound = "sessione bozza non trovata"

// Registry keeps one Session per open review dialog and expires idle ones.
type Registry struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates a registry whose sessions expire after ttl of inactivity.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// SetConversationParser wires the WhatsApp extraction for sessions opened afterwards.
func (r *Registry) SetConversationParser(p ports.ConversationParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.Parser = p
}

// SetPhotoAnalyzer wires the photo extraction for sessions opened afterwards.
func (r *Registry) SetPhotoAnalyzer(a ports.PhotoAnalyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.Photos = a
}

// SetCustomerLookup wires customer matching for sessions opened afterwards.
func (r *Registry) SetCustomerLookup(c ports.CustomerLookup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.Customers = c
}

// Open creates and registers a new session.
func (r *Registry) Open() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := NewSession(r.deps)
	s.now = r.now
	s.lastUsed = r.now()
	r.sessions[s.ID()] = s
	return s
}

// Get returns a live session and marks it as used.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, apperr.NotFound(msgSessionNotFound)
	}
	s.touch()
	return s, nil
}

// Discard closes and forgets a session. Unknown ids are ignored.
func (r *Registry) Discard(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 && r.deps.Log != nil {
				r.deps.Log.Info("expired draft sessions", "count", n)
			}
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
