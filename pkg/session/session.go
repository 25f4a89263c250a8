// Package session maps session IDs to filter-set workspaces.
//
// Sessions are how the HTTP API gives each client its own
// [workspace.Workspace]. They live in memory only and expire after a
// period without use.
//
// # Usage
//
//	store := session.NewMemoryStore(time.Hour)
//
//	// Create session
//	sess, err := session.New(store.TTL())
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	// Retrieve session
//	sess, err = store.Get(ctx, sessionID)
//	if errors.Is(err, session.ErrNotFound) {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"sync"
	"time"

	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/workspace"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has
	// expired.
	ErrNotFound = stderrors.New("session not found")
)

// Session is one client's workspace.
type Session struct {
	ID        string               `json:"id"`
	Workspace *workspace.Workspace `json:"workspace"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID and extends its lifetime.
	// Returns ErrNotFound if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// DefaultTTL is the default idle session lifetime.
const DefaultTTL = time.Hour

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New creates a session holding a fresh workspace.
func New(ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate session id")
	}
	now := time.Now()
	return &Session{
		ID:        id,
		Workspace: workspace.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// MemoryStore is an in-memory Store with sliding expiry.
// It is safe for concurrent use.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore returns a store whose sessions expire ttl after their
// last use. A non-positive ttl means DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]*Session{}}
}

// TTL returns the idle lifetime of sessions.
func (m *MemoryStore) TTL() time.Duration { return m.ttl }

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if now.After(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	s.ExpiresAt = now.Add(m.ttl)
	return s, nil
}

// Set implements Store. The session's expiry is reset to a full TTL.
func (m *MemoryStore) Set(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "session must have an id")
	}
	if s.Workspace == nil {
		s.Workspace = workspace.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ExpiresAt = m.now().Add(m.ttl)
	m.sessions[s.ID] = s
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Cleanup implements Store.
func (m *MemoryStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// the next Cleanup.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *MemoryStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = m.Cleanup(ctx)
		}
	}
}
