package sessions

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session is the server-side record of an authenticated portal session.
// The browser holds only the raw refresh token; the store keeps its hash.
type Session struct {
	ID               string
	UserID           string
	Email            string
	Name             string
	RefreshTokenHash string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	Revoked          bool
}

// Active reports whether the session is usable at the given time.
func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && s.ExpiresAt.After(now)
}

// HashToken computes the SHA-256 hash of a raw refresh token for storage.
// Raw tokens are never stored.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
