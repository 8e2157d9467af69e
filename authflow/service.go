package authflow

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/atlaserp/portal-gateway/internal/errors"
	"github.com/atlaserp/portal-gateway/sessions"
	"github.com/atlaserp/portal-gateway/token"
	"github.com/atlaserp/portal-gateway/upstream"
)

// Service owns the token lifecycle: login, refresh (deduplicated), and
// logout invalidation sequencing, with the server-side session store as
// the trust anchor.
type Service struct {
	strategy     Strategy
	demoFallback Strategy // non-nil only in demo mode
	repo         sessions.Repo
	sessionTTL   time.Duration
	refreshGroup singleflight.Group
	nowTime      func() time.Time // injectable for testing
}

// ServiceOption modifies a Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithDemoFallback enables falling back to the demo strategy when the
// upstream auth service is unreachable during login.
func WithDemoFallback(demo Strategy) ServiceOption {
	return func(s *Service) {
		s.demoFallback = demo
	}
}

// NewService initializes the token-lifecycle service.
func NewService(strategy Strategy, repo sessions.Repo, sessionTTL time.Duration, options ...ServiceOption) (*Service, error) {
	if strategy == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[NewService] strategy is required")
	}
	if repo == nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[NewService] session repo is required")
	}

	service := &Service{
		strategy:   strategy,
		repo:       repo,
		sessionTTL: sessionTTL,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Login authenticates and records a server-side session for the issued
// refresh token. In demo mode an unreachable upstream falls back to the
// demo strategy instead of failing.
func (s *Service) Login(ctx context.Context, email, password string) (*upstream.LoginResult, error) {
	result, err := s.strategy.Login(ctx, email, password)
	if err != nil && s.demoFallback != nil && errors.Is(err, errors.ErrUpstreamUnavailable) {
		log.Warn().Str("email", email).Msg("auth service unreachable, using demo fallback")
		result, err = s.demoFallback.Login(ctx, email, password)
	}
	if err != nil {
		return nil, err
	}

	now := s.nowTime()
	session := &sessions.Session{
		UserID:           result.User.ID,
		Email:            result.User.Email,
		Name:             result.User.Name,
		RefreshTokenHash: sessions.HashToken(result.Pair.RefreshToken),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.sessionTTL),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, errors.Wrapf(err, "[Service.Login] recording session")
	}
	return result, nil
}

// Adopt records a session for credentials established outside the
// strategy, such as an SSO callback.
func (s *Service) Adopt(ctx context.Context, result *upstream.LoginResult) error {
	now := s.nowTime()
	session := &sessions.Session{
		UserID:           result.User.ID,
		Email:            result.User.Email,
		Name:             result.User.Name,
		RefreshTokenHash: sessions.HashToken(result.Pair.RefreshToken),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.sessionTTL),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return errors.Wrapf(err, "[Service.Adopt] recording session")
	}
	return nil
}

// Refresh exchanges a refresh token for a rotated pair and rotates the
// backing session. Concurrent refreshes for the same token share one
// in-flight upstream call.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	if refreshToken == "" {
		return nil, errors.ErrInvalidRefreshToken
	}

	result, err, _ := s.refreshGroup.Do(refreshToken, func() (any, error) {
		return s.refreshOnce(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*token.Pair), nil
}

func (s *Service) refreshOnce(ctx context.Context, refreshToken string) (*token.Pair, error) {
	session, err := s.repo.GetByRefreshHash(ctx, sessions.HashToken(refreshToken))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRefreshToken, "[Service.refreshOnce] unknown refresh token")
	}
	if !session.Active(s.nowTime()) {
		return nil, errors.Wrapf(errors.ErrSessionExpired, "[Service.refreshOnce] session %s", session.ID)
	}

	// A session established through the demo fallback holds a sentinel
	// refresh token the live upstream has never seen.
	strategy := s.strategy
	if s.demoFallback != nil && strings.HasPrefix(refreshToken, demoRefreshPrefix) {
		strategy = s.demoFallback
	}

	pair, err := strategy.Refresh(ctx, refreshToken)
	if err != nil {
		// A failed refresh burns the session: the caller clears its
		// credentials and the stale record must not be reusable.
		if revokeErr := s.repo.Revoke(ctx, session.ID); revokeErr != nil {
			log.Error().Err(revokeErr).Str("session_id", session.ID).Msg("failed to revoke session after refresh failure")
		}
		return nil, err
	}

	now := s.nowTime()
	replacement := &sessions.Session{
		UserID:           session.UserID,
		Email:            session.Email,
		Name:             session.Name,
		RefreshTokenHash: sessions.HashToken(pair.RefreshToken),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.sessionTTL),
	}
	if err := s.repo.Rotate(ctx, session.ID, replacement); err != nil {
		return nil, errors.Wrapf(err, "[Service.refreshOnce] rotating session")
	}
	return pair, nil
}

// Logout invalidates the refresh token upstream first, then revokes the
// local session. Upstream failure does not keep the session alive: local
// revocation happens regardless, so the credentials die either way.
func (s *Service) Logout(ctx context.Context, bearer, refreshToken string) error {
	strategy := s.strategy
	if s.demoFallback != nil && strings.HasPrefix(refreshToken, demoRefreshPrefix) {
		strategy = s.demoFallback
	}
	if err := strategy.Logout(ctx, bearer, refreshToken); err != nil {
		log.Warn().Err(err).Msg("upstream logout failed, revoking local session anyway")
	}

	session, err := s.repo.GetByRefreshHash(ctx, sessions.HashToken(refreshToken))
	if err != nil {
		return nil // no local session to revoke
	}
	return s.repo.Revoke(ctx, session.ID)
}

// ListSessions returns the user's active sessions.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]sessions.Session, error) {
	return s.repo.ListActiveByUser(ctx, userID)
}

// RevokeAllForUser kills every session for a user. Used when a password
// reset succeeds.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.repo.RevokeAllForUser(ctx, userID)
}

// CleanupExpiredSessions removes sessions past their expiry.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
