package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl)
	s.now = c.now
	return s, c
}

func TestGenerateID(t *testing.T) {
	a, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID() error: %v", err)
	}
	b, _ := GenerateID()
	if a == b || len(a) != 43 {
		t.Errorf("ids = %q, %q", a, b)
	}
}

func TestNew(t *testing.T) {
	s, err := New(time.Minute)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.Workspace == nil || s.Workspace.Len() != 1 {
		t.Errorf("workspace = %+v", s.Workspace)
	}
	if s.IsExpired() {
		t.Error("new session is expired")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, clk := newTestStore(10 * time.Minute)

	sess, _ := New(store.TTL())
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	// Each Get slides the expiry forward.
	clk.t = clk.t.Add(8 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); err != nil {
		t.Fatalf("Get() after 8m: %v", err)
	}
	clk.t = clk.t.Add(8 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); err != nil {
		t.Fatalf("Get() after 16m: %v", err)
	}

	clk.t = clk.t.Add(11 * time.Minute)
	if _, err := store.Get(ctx, sess.ID); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("expired Get() error = %v, want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("expired session kept, len = %d", store.Len())
	}

	if _, err := store.Get(ctx, "missing"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("missing Get() error = %v", err)
	}
}

func TestMemoryStoreDeleteAndCleanup(t *testing.T) {
	ctx := context.Background()
	store, clk := newTestStore(time.Minute)

	a, _ := New(time.Minute)
	b, _ := New(time.Minute)
	store.Set(ctx, a)
	store.Set(ctx, b)

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("len = %d, want 1", store.Len())
	}

	clk.t = clk.t.Add(2 * time.Minute)
	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("len after cleanup = %d, want 0", store.Len())
	}
}

func TestMemoryStoreSetValidates(t *testing.T) {
	store := NewMemoryStore(0)
	if store.TTL() != DefaultTTL {
		t.Errorf("TTL = %v, want %v", store.TTL(), DefaultTTL)
	}
	if err := store.Set(context.Background(), &Session{}); err == nil {
		t.Error("Set() without id should fail")
	}
	s := &Session{ID: "x"}
	if err := store.Set(context.Background(), s); err != nil || s.Workspace == nil {
		t.Errorf("Set() = %v, workspace %v", err, s.Workspace)
	}
}

func TestRunCleanupStops(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not stop")
	}
}
