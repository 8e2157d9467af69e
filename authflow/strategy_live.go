package authflow

import (
	"context"

	"github.com/atlaserp/portal-gateway/token"
	"github.com/atlaserp/portal-gateway/upstream"
)

// LiveStrategy forwards every credential operation to the backend auth
// microservice.
type LiveStrategy struct {
	authClient *upstream.AuthClient
}

// NewLiveStrategy creates the production strategy backed by the auth service.
func NewLiveStrategy(authClient *upstream.AuthClient) *LiveStrategy {
	return &LiveStrategy{authClient: authClient}
}

func (s *LiveStrategy) Login(ctx context.Context, email, password string) (*upstream.LoginResult, error) {
	return s.authClient.Login(ctx, email, password)
}

func (s *LiveStrategy) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	return s.authClient.Refresh(ctx, refreshToken)
}

func (s *LiveStrategy) Logout(ctx context.Context, bearer, refreshToken string) error {
	return s.authClient.Logout(ctx, bearer, refreshToken)
}

var _ Strategy = (*LiveStrategy)(nil)
