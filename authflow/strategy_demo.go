package authflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlaserp/portal-gateway/internal/errors"
	"github.com/atlaserp/portal-gateway/token"
	"github.com/atlaserp/portal-gateway/upstream"
)

const demoRefreshPrefix = "demo-refresh-"

// DemoStrategy fabricates successful logins for offline demos. It checks
// the supplied credentials against a single bcrypt-hashed demo account
// and issues sentinel tokens the guard recognises. Only wired in when
// the demo-mode config flag is set.
type DemoStrategy struct {
	email        string
	passwordHash string
}

// NewDemoStrategy creates a demo strategy for the given account.
func NewDemoStrategy(email, passwordHash string) *DemoStrategy {
	return &DemoStrategy{email: email, passwordHash: passwordHash}
}

func (s *DemoStrategy) Login(_ context.Context, email, password string) (*upstream.LoginResult, error) {
	if !strings.EqualFold(email, s.email) {
		return nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	return &upstream.LoginResult{
		Pair: token.Pair{
			AccessToken:  token.DemoSentinelPrefix + randomHex(16),
			RefreshToken: demoRefreshPrefix + randomHex(16),
		},
		User: token.UserRecord{
			ID:    "demo-user",
			Email: s.email,
			Name:  "Demo User",
			Role:  "admin",
		},
	}, nil
}

// Refresh reissues a sentinel pair. Only demo refresh tokens are honoured.
func (s *DemoStrategy) Refresh(_ context.Context, refreshToken string) (*token.Pair, error) {
	if !strings.HasPrefix(refreshToken, demoRefreshPrefix) {
		return nil, errors.ErrInvalidRefreshToken
	}
	return &token.Pair{
		AccessToken:  token.DemoSentinelPrefix + randomHex(16),
		RefreshToken: demoRefreshPrefix + randomHex(16),
	}, nil
}

// Logout is a no-op: demo tokens have no issuer to notify.
func (s *DemoStrategy) Logout(context.Context, string, string) error {
	return nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b) //nolint:errcheck // crypto/rand.Read always fills b on supported platforms
	return hex.EncodeToString(b)
}

var _ Strategy = (*DemoStrategy)(nil)
