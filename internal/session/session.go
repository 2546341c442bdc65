package session

import (
	"context"
	"sync"
	"time"

	"github.com/chartchat/chartchat/internal/schema"
)

// Session holds one conversation's ordered history.
// Messages are only ever appended; callers receive copies.
type Session struct {
	id        string
	createdAt time.Time

	mu        sync.Mutex
	messages  []schema.Message
	updatedAt time.Time

	// turn is a one-slot semaphore: holding it means a turn is in flight.
	turn chan struct{}
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:        id,
		createdAt: now,
		updatedAt: now,
		turn:      make(chan struct{}, 1),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the time of the last append or clear.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) append(msg schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(msg)
}

func (s *Session) appendLocked(msg schema.Message) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, msg)
	s.updatedAt = time.Now()
}

// History returns a snapshot of the messages in append order.
func (s *Session) History() []schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.updatedAt = time.Now()
}

// Busy reports whether a turn currently holds the session.
func (s *Session) Busy() bool {
	return len(s.turn) > 0
}

// Acquire claims the session for one turn. The returned release func is
// idempotent. With wait=false a session that is already running a turn
// fails immediately with ErrSessionBusy; with wait=true the caller queues
// until the slot frees or ctx ends.
func (s *Session) Acquire(ctx context.Context, wait bool) (release func(), err error) {
	select {
	case s.turn <- struct{}{}:
		return s.releaser(), nil
	default:
	}

	if !wait {
		return nil, schema.NewError(schema.KindSessionBusy, "session %s is already processing a message", s.id)
	}

	select {
	case s.turn <- struct{}{}:
		return s.releaser(), nil
	case <-ctx.Done():
		return nil, schema.WrapError(schema.KindSessionBusy, ctx.Err(), "gave up waiting for session %s", s.id)
	}
}

func (s *Session) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-s.turn })
	}
}
