package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chartchat/chartchat/internal/schema"
)

func TestGetOrCreate_EmptyIDGeneratesFresh(t *testing.T) {
	m := NewManager()
	a := m.GetOrCreate("")
	b := m.GetOrCreate("")
	if a.ID() == "" || b.ID() == "" {
		t.Fatal("expected generated ids")
	}
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct sessions, both got %q", a.ID())
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", m.Len())
	}
}

func TestGetOrCreate_SameIDSameSession(t *testing.T) {
	m := NewManager()
	if m.GetOrCreate("x") != m.GetOrCreate("x") {
		t.Fatal("expected the same session for the same id")
	}
}

func TestAppend_OrderAndCopy(t *testing.T) {
	m := NewManager()
	s := m.GetOrCreate("s1")

	for _, text := range []string{"one", "two", "three"} {
		if err := m.Append(s.ID(), schema.NewUserMessage(text)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	h, err := m.History("s1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != 3 || h[0].Content != "one" || h[2].Content != "three" {
		t.Fatalf("unexpected history: %+v", h)
	}

	h[0].Content = "mutated"
	again, _ := m.History("s1")
	if again[0].Content != "one" {
		t.Fatal("History must return a copy")
	}
}

func TestAppend_UnknownSession(t *testing.T) {
	m := NewManager()
	if err := m.Append("nope", schema.NewUserMessage("x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.History("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager()
	a := m.GetOrCreate("a")
	b := m.GetOrCreate("b")

	_ = m.Append(a.ID(), schema.NewUserMessage("for a"))

	if b.Len() != 0 {
		t.Fatalf("session b should be empty, has %d", b.Len())
	}
}

func TestClearAndDelete(t *testing.T) {
	m := NewManager()
	s := m.GetOrCreate("c")
	_ = m.Append(s.ID(), schema.NewUserMessage("hi"))

	if err := m.Clear("c"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty history after clear, got %d", s.Len())
	}
	if _, ok := m.Get("c"); !ok {
		t.Fatal("clear must keep the session")
	}

	if !m.Delete("c") {
		t.Fatal("expected delete to report removal")
	}
	if m.Delete("c") {
		t.Fatal("second delete should report nothing removed")
	}
}

func TestConcurrentAppend(t *testing.T) {
	m := NewManager()
	s := m.GetOrCreate("busy")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Append(s.ID(), schema.NewUserMessage("x"))
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("expected 50 messages, got %d", s.Len())
	}
}

func TestList_NewestFirst(t *testing.T) {
	m := NewManager()
	m.GetOrCreate("old")
	time.Sleep(5 * time.Millisecond)
	m.GetOrCreate("new")

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].ID != "new" {
		t.Fatalf("expected newest first, got %q", list[0].ID)
	}
}

func TestAcquire_RejectWhenBusy(t *testing.T) {
	s := NewManager().GetOrCreate("t")

	release, err := s.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if !s.Busy() {
		t.Fatal("expected session to be busy")
	}

	if _, err := s.Acquire(context.Background(), false); !errors.Is(err, schema.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	release()
	release() // idempotent

	release2, err := s.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestAcquire_WaitQueues(t *testing.T) {
	s := NewManager().GetOrCreate("w")
	release, _ := s.Acquire(context.Background(), false)

	got := make(chan error, 1)
	go func() {
		r, err := s.Acquire(context.Background(), true)
		if r != nil {
			r()
		}
		got <- err
	}()

	select {
	case <-got:
		t.Fatal("waiter must block while the session is held")
	case <-time.After(30 * time.Millisecond):
	}

	release()
	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("waiter failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired")
	}
}

func TestAcquire_WaitGivesUpWithContext(t *testing.T) {
	s := NewManager().GetOrCreate("w2")
	release, _ := s.Acquire(context.Background(), false)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Acquire(ctx, true)
	if !errors.Is(err, schema.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped deadline error, got %v", err)
	}
}

func TestEvictIdle(t *testing.T) {
	m := NewManager()
	m.GetOrCreate("idle")
	held := m.GetOrCreate("held")
	release, _ := held.Acquire(context.Background(), false)
	defer release()

	time.Sleep(20 * time.Millisecond)
	m.GetOrCreate("fresh")

	if n := m.EvictIdle(10 * time.Millisecond); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := m.Get("idle"); ok {
		t.Fatal("idle session should be gone")
	}
	if _, ok := m.Get("held"); !ok {
		t.Fatal("busy session must survive eviction")
	}
	if _, ok := m.Get("fresh"); !ok {
		t.Fatal("fresh session must survive eviction")
	}
	if m.EvictIdle(0) != 0 {
		t.Fatal("zero ttl must be a no-op")
	}
}

func TestAppendTo_RestoresEvictedSession(t *testing.T) {
	m := NewManager()
	s := m.GetOrCreate("gone")
	time.Sleep(20 * time.Millisecond)

	if n := m.EvictIdle(10 * time.Millisecond); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	release, err := s.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()

	m.AppendTo(s, schema.NewUserMessage("still here"))

	h, err := m.History("gone")
	if err != nil {
		t.Fatalf("session should be back in the manager: %v", err)
	}
	if len(h) != 1 || h[0].Content != "still here" {
		t.Fatalf("unexpected history: %+v", h)
	}
	if got, _ := m.Get("gone"); got != s {
		t.Fatal("the held session itself must be restored")
	}
}

func TestJanitor(t *testing.T) {
	m := NewManager()

	if _, err := NewJanitor(m, time.Minute, "not a schedule"); err == nil {
		t.Fatal("expected invalid schedule error")
	}

	j, err := NewJanitor(m, 0, "")
	if err != nil {
		t.Fatalf("disabled janitor: %v", err)
	}
	if j.Enabled() {
		t.Fatal("zero ttl must disable the janitor")
	}

	j, err = NewJanitor(m, time.Millisecond, "@every 1s")
	if err != nil {
		t.Fatalf("new janitor: %v", err)
	}
	m.GetOrCreate("stale")
	time.Sleep(5 * time.Millisecond)
	j.sweep()
	if m.Len() != 0 {
		t.Fatalf("expected sweep to evict, %d left", m.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
