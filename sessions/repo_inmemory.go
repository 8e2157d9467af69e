package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atlaserp/portal-gateway/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo. Sessions do not
// survive a restart; use the SQLite repo where that matters.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // sessionID -> Session
	byHash   map[string]string  // refreshTokenHash -> sessionID
	nowTime  func() time.Time
}

// NewInMemoryRepo creates a new in-memory session repository.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
		byHash:   make(map[string]string),
		nowTime:  time.Now,
	}
}

// Create stores a new session. The ID is generated if empty.
func (r *InMemoryRepo) Create(_ context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	if session.RefreshTokenHash == "" {
		return fmt.Errorf("refresh token hash is required")
	}
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = *session
	r.byHash[session.RefreshTokenHash] = session.ID
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return &session, nil
}

func (r *InMemoryRepo) GetByRefreshHash(_ context.Context, refreshHash string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[refreshHash]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return &session, nil
}

// Rotate revokes the consumed session and stores its replacement under
// one lock so a concurrent refresh cannot observe the half-rotated state.
func (r *InMemoryRepo) Rotate(_ context.Context, oldID string, replacement *Session) error {
	if replacement == nil {
		return fmt.Errorf("replacement session is required")
	}
	if replacement.ID == "" {
		replacement.ID = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[oldID]; ok {
		old.Revoked = true
		r.sessions[oldID] = old
	}
	r.sessions[replacement.ID] = *replacement
	r.byHash[replacement.RefreshTokenHash] = replacement.ID
	return nil
}

func (r *InMemoryRepo) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil // already gone, no error
	}
	session.Revoked = true
	r.sessions[id] = session
	return nil
}

func (r *InMemoryRepo) RevokeAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.UserID == userID {
			session.Revoked = true
			r.sessions[id] = session
		}
	}
	return nil
}

func (r *InMemoryRepo) ListActiveByUser(_ context.Context, userID string) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.nowTime()
	active := []Session{}
	for _, session := range r.sessions {
		if session.UserID == userID && session.Active(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

func (r *InMemoryRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	var deleted int64
	for id, session := range r.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.sessions, id)
			delete(r.byHash, session.RefreshTokenHash)
			deleted++
		}
	}
	return deleted, nil
}

var _ Repo = (*InMemoryRepo)(nil)
