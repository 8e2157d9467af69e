package sessions

import "context"

// Repo is the session-management interface the gateway trusts instead of
// client-held state. Implementations must treat the refresh-token hash as
// the lookup key used during refresh and logout.
type Repo interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	GetByRefreshHash(ctx context.Context, refreshHash string) (*Session, error)

	// Rotate revokes the consumed session and creates its replacement.
	// Implementations with transactional backends must make this atomic.
	Rotate(ctx context.Context, oldID string, replacement *Session) error

	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	ListActiveByUser(ctx context.Context, userID string) ([]Session, error)

	// DeleteExpired removes sessions past their expiry, returning the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
