package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atlaserp/portal-gateway/internal/errors"
	"github.com/atlaserp/portal-gateway/token"
)

// Paths on the backend auth microservice. The PIN endpoints share one
// resource path; the HTTP method selects the operation.
const (
	PathLogin          = "/auth/login"
	PathLogout         = "/auth/logout"
	PathRefresh        = "/auth/refresh"
	PathProfile        = "/auth/profile"
	PathForgotPassword = "/auth/forgot-password"
	PathVerifyOTP      = "/auth/verify-otp"
	PathResetPassword  = "/auth/reset-password"
	PathPIN            = "/auth/pin"
)

// LoginResult is the credential material returned by a successful login.
type LoginResult struct {
	Pair token.Pair
	User token.UserRecord
}

// AuthClient wraps the backend auth microservice.
type AuthClient struct {
	client       *Client
	loginTimeout time.Duration
}

// NewAuthClient creates an auth-service client. loginTimeout bounds the
// login call specifically; other calls use the client's default timeout.
func NewAuthClient(baseURL string, timeout, loginTimeout time.Duration) *AuthClient {
	return &AuthClient{
		client:       NewClient(baseURL, timeout),
		loginTimeout: loginTimeout,
	}
}

// Login exchanges credentials for a token pair and user record.
func (a *AuthClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.loginTimeout)
	defer cancel()

	envelope, err := a.client.Do(ctx, http.MethodPost, PathLogin, map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}

	var result struct {
		token.Pair
		User token.UserRecord `json:"user"`
	}
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, errors.Wrapf(err, "[AuthClient.Login] decoding login payload")
	}
	return &LoginResult{Pair: result.Pair, User: result.User}, nil
}

// Refresh exchanges a refresh token for a fresh token pair.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	envelope, err := a.client.Do(ctx, http.MethodPost, PathRefresh, map[string]string{
		"refreshToken": refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}

	var pair token.Pair
	if err := json.Unmarshal(envelope.Data, &pair); err != nil {
		return nil, errors.Wrapf(err, "[AuthClient.Refresh] decoding refresh payload")
	}
	if pair.AccessToken == "" {
		return nil, errors.Wrapf(errors.ErrRefreshFailed, "[AuthClient.Refresh] no access token in response")
	}
	return &pair, nil
}

// Logout invalidates the refresh token server-side.
func (a *AuthClient) Logout(ctx context.Context, bearer, refreshToken string) error {
	_, err := a.client.Do(ctx, http.MethodPost, PathLogout, map[string]string{
		"refreshToken": refreshToken,
	}, bearer)
	return err
}

// Forward proxies an arbitrary call to the auth service, returning the
// upstream data payload and message for re-enveloping.
func (a *AuthClient) Forward(ctx context.Context, method, path string, body any, bearer string) (json.RawMessage, string, error) {
	envelope, err := a.client.Do(ctx, method, path, body, bearer)
	if err != nil {
		return nil, "", err
	}
	return envelope.Data, envelope.Message, nil
}
