package authflow

import (
	"context"

	"github.com/atlaserp/portal-gateway/token"
	"github.com/atlaserp/portal-gateway/upstream"
)

// Strategy performs the credential operations the gateway cannot decide
// on its own. Live forwards to the auth microservice; Demo fabricates
// results for offline demos. Keeping demo behind this interface (and an
// explicit config flag) keeps it out of production code paths.
type Strategy interface {
	// Login exchanges credentials for a token pair and user record.
	Login(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	// Refresh exchanges a refresh token for a rotated pair.
	Refresh(ctx context.Context, refreshToken string) (*token.Pair, error)
	// Logout invalidates the refresh token at its issuer.
	Logout(ctx context.Context, bearer, refreshToken string) error
}
