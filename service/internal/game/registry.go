package game

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry tracks the live sessions of the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	defaults Options
	log      logrus.FieldLogger
}

// NewRegistry returns an empty registry. defaults supplies every option a
// Create call leaves unset.
func NewRegistry(defaults Options) *Registry {
	r := &Registry{
		sessions: make(map[uuid.UUID]*Session),
		defaults: defaults,
	}
	if defaults.Logger != nil {
		r.log = defaults.Logger
	} else {
		l := logrus.New()
		l.SetOutput(io.Discard)
		r.log = l
	}
	return r
}

// Create builds and starts a session. The caller picks variant, mode,
// hotseat and optionally a seed; everything else comes from the defaults.
func (r *Registry) Create(opts Options) (*Session, error) {
	o := r.defaults
	o.Variant = opts.Variant
	o.Mode = opts.Mode
	o.Hotseat = opts.Hotseat
	if opts.Seed != 0 {
		o.Seed = opts.Seed
	}
	s, err := NewSession(o)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	s.Start()
	r.log.WithFields(logrus.Fields{"game": s.ID, "variant": s.Variant, "sessions": n}).Info("session created")
	return s, nil
}

// Get returns a live session.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets a session. Unknown ids are ignored.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PruneIdle removes every session with no join or command for longer than
// ttl and returns how many went.
func (r *Registry) PruneIdle(now time.Time, ttl time.Duration) int {
	r.mu.RLock()
	var idle []uuid.UUID
	for id, s := range r.sessions {
		if now.Sub(s.LastActive()) > ttl {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range idle {
		r.Remove(id)
	}
	if len(idle) > 0 {
		r.log.WithField("pruned", len(idle)).Info("idle sessions removed")
	}
	return len(idle)
}

// CloseAll stops every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
