package upstream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlaserp/portal-gateway/internal/errors"
	"github.com/atlaserp/portal-gateway/upstream"
)

func TestAuthClient_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/login", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": "success",
				"message": "ok",
				"data": {
					"accessToken": "aaa.bbb.ccc",
					"refreshToken": "refresh-123",
					"user": {"id": "u1", "email": "a@b.com", "name": "A", "role": "admin"}
				},
				"statusCode": 200
			}`))
		}))
		defer srv.Close()

		client := upstream.NewAuthClient(srv.URL, 5*time.Second, 15*time.Second)
		result, err := client.Login(context.Background(), "a@b.com", "x")
		require.NoError(t, err)
		require.Equal(t, "aaa.bbb.ccc", result.Pair.AccessToken)
		require.Equal(t, "a@b.com", result.User.Email)
	})

	t.Run("structured rejection echoes upstream status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","message":"invalid credentials","statusCode":401}`))
		}))
		defer srv.Close()

		client := upstream.NewAuthClient(srv.URL, 5*time.Second, 15*time.Second)
		_, err := client.Login(context.Background(), "a@b.com", "wrong")
		require.Error(t, err)

		var statusErr *upstream.StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, 401, statusErr.Status)
		require.Equal(t, "invalid credentials", statusErr.Message)
	})

	t.Run("boolean envelope shape accepted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"success": true,
				"message": "ok",
				"data": {"accessToken": "x.y.z", "refreshToken": "r", "user": {"email": "a@b.com"}},
				"status": 200
			}`))
		}))
		defer srv.Close()

		client := upstream.NewAuthClient(srv.URL, 5*time.Second, 15*time.Second)
		result, err := client.Login(context.Background(), "a@b.com", "x")
		require.NoError(t, err)
		require.Equal(t, "x.y.z", result.Pair.AccessToken)
	})

	t.Run("unreachable service", func(t *testing.T) {
		client := upstream.NewAuthClient("http://127.0.0.1:1", time.Second, time.Second)
		_, err := client.Login(context.Background(), "a@b.com", "x")
		require.ErrorIs(t, err, errors.ErrUpstreamUnavailable)
	})
}

func TestAuthClient_Refresh(t *testing.T) {
	t.Run("rotates pair", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/refresh", r.URL.Path)
			_, _ = w.Write([]byte(`{
				"status": "success",
				"data": {"accessToken": "new.access.token", "refreshToken": "new-refresh"},
				"statusCode": 200
			}`))
		}))
		defer srv.Close()

		client := upstream.NewAuthClient(srv.URL, 5*time.Second, 15*time.Second)
		pair, err := client.Refresh(context.Background(), "old-refresh")
		require.NoError(t, err)
		require.Equal(t, "new.access.token", pair.AccessToken)
		require.Equal(t, "new-refresh", pair.RefreshToken)
	})

	t.Run("empty access token rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "data": {}, "statusCode": 200}`))
		}))
		defer srv.Close()

		client := upstream.NewAuthClient(srv.URL, 5*time.Second, 15*time.Second)
		_, err := client.Refresh(context.Background(), "old-refresh")
		require.ErrorIs(t, err, errors.ErrRefreshFailed)
	})
}

func TestAuthClient_Forward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status": "success", "message": "profile", "data": {"id": "u1"}, "statusCode": 200}`))
	}))
	defer srv.Close()

	client := upstream.NewAuthClient(srv.URL, 5*time.Second, 15*time.Second)
	data, message, err := client.Forward(context.Background(), http.MethodGet, upstream.PathProfile, nil, "token-123")
	require.NoError(t, err)
	require.Equal(t, "profile", message)
	require.JSONEq(t, `{"id": "u1"}`, string(data))
}
