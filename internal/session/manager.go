// Package session keeps per-conversation history in memory.
//
// Sessions live for the lifetime of the process unless they are deleted
// or evicted by the Janitor. Each session's history is append-only; the
// only destructive operations are Clear and Delete.
package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chartchat/chartchat/internal/schema"
)

// ErrNotFound is returned for operations on a session id that does not exist.
var ErrNotFound = errors.New("session not found")

// Info is a point-in-time summary of one session.
type Info struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Busy      bool      `json:"busy"`
}

// Manager owns every live session.
type Manager struct {
	cache sync.Map // id → *Session
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// GetOrCreate returns the session for id, creating it when absent.
// An empty id always creates a fresh session with a generated id.
func (m *Manager) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if v, ok := m.cache.Load(id); ok {
		return v.(*Session)
	}

	actual, loaded := m.cache.LoadOrStore(id, newSession(id))
	if !loaded {
		slog.Debug("Session created", "session", id)
	}
	return actual.(*Session)
}

// Get returns the session for id without creating it.
func (m *Manager) Get(id string) (*Session, bool) {
	v, ok := m.cache.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Append adds msg to the end of the session's history.
func (m *Manager) Append(id string, msg schema.Message) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrNotFound
	}
	s.append(msg)
	return nil
}

// AppendTo adds msg to s. A session evicted while a caller still holds it
// is stored again first, so a running turn never writes to a detached
// session. Eviction checks the same lock, so the two cannot interleave.
func (m *Manager) AppendTo(s *Session, msg schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actual, loaded := m.cache.LoadOrStore(s.id, s)
	switch {
	case !loaded:
		slog.Info("Session restored after eviction", "session", s.id)
	case actual != s:
		slog.Warn("Session id reused while detached", "session", s.id)
	}
	s.appendLocked(msg)
}

// History returns a copy of the session's messages in append order.
func (m *Manager) History(id string) ([]schema.Message, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.History(), nil
}

// Clear empties the session's history but keeps the session.
func (m *Manager) Clear(id string) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrNotFound
	}
	s.clear()
	slog.Info("Session cleared", "session", id)
	return nil
}

// Delete removes the session entirely.
func (m *Manager) Delete(id string) bool {
	_, loaded := m.cache.LoadAndDelete(id)
	return loaded
}

// List returns a summary of every session, most recently updated first.
func (m *Manager) List() []Info {
	var out []Info
	m.cache.Range(func(_, v any) bool {
		s := v.(*Session)
		out = append(out, Info{
			ID:        s.ID(),
			Messages:  s.Len(),
			CreatedAt: s.CreatedAt(),
			UpdatedAt: s.UpdatedAt(),
			Busy:      s.Busy(),
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	n := 0
	m.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// EvictIdle deletes sessions not updated within ttl that are not running a
// turn, and returns how many were removed. A non-positive ttl is a no-op.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)

	evicted := 0
	m.cache.Range(func(k, v any) bool {
		s := v.(*Session)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.Busy() || s.updatedAt.After(cutoff) {
			return true
		}
		if m.cache.CompareAndDelete(k, v) {
			evicted++
		}
		return true
	})
	if evicted > 0 {
		slog.Info("Evicted idle sessions", "count", evicted, "ttl", ttl)
	}
	return evicted
}
