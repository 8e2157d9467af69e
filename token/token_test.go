package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/atlaserp/portal-gateway/token"
)

// signedToken builds a real HS256 token with the given expiry offset.
func signedToken(t *testing.T, expOffset time.Duration) string {
	t.Helper()
	claims := jwtlib.MapClaims{
		"sub":   "user-1",
		"email": "john.doe@example.com",
		"exp":   time.Now().Add(expOffset).Unix(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestExtractClaims(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		claims, err := token.ExtractClaims(signedToken(t, time.Hour))
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "john.doe@example.com", claims.Email)
		require.True(t, claims.HasExp)
		require.False(t, claims.ExpiredAt(time.Now()))
	})

	t.Run("expired token", func(t *testing.T) {
		claims, err := token.ExtractClaims(signedToken(t, -time.Hour))
		require.NoError(t, err)
		require.True(t, claims.ExpiredAt(time.Now()))
	})

	t.Run("wrong segment count", func(t *testing.T) {
		_, err := token.ExtractClaims("only.two-segments")
		require.Error(t, err)
	})

	t.Run("garbage middle segment", func(t *testing.T) {
		_, err := token.ExtractClaims("aaaa.!!!!not-base64!!!!.cccc")
		require.Error(t, err)
	})

	t.Run("no exp claim never expires", func(t *testing.T) {
		signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
			"sub": "user-1",
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		claims, err := token.ExtractClaims(signed)
		require.NoError(t, err)
		require.False(t, claims.HasExp)
		require.False(t, claims.ExpiredAt(time.Now()))
	})
}

func TestParseUserRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		record, err := token.ParseUserRecord(`{"id":"u1","email":"a@b.com","name":"A","role":"admin"}`)
		require.NoError(t, err)
		require.Equal(t, "a@b.com", record.Email)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := token.ParseUserRecord(`{"id":"u1","name":"A"}`)
		require.Error(t, err)
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := token.ParseUserRecord("not-json")
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := token.ParseUserRecord("  ")
		require.Error(t, err)
	})
}

func TestIsDemoSentinel(t *testing.T) {
	require.True(t, token.IsDemoSentinel("demo-token-1234567890"))
	require.False(t, token.IsDemoSentinel(signedToken(t, time.Hour)))
}
