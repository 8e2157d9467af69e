package token

import (
	"encoding/json"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/atlaserp/portal-gateway/internal/errors"
)

const (
	// MinPlausibleLength is the shortest string accepted as a candidate
	// access token. Anything shorter is treated as absent.
	MinPlausibleLength = 20

	// DemoSentinelPrefix marks fabricated demo-mode access tokens. A demo
	// token is valid only when a parseable user record accompanies it.
	DemoSentinelPrefix = "demo-token-"
)

// Pair is the access/refresh credential pair issued at login and rotated
// on refresh.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserRecord is the user payload persisted alongside the token pair.
type UserRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ParseUserRecord decodes the stored user record. A record without an
// email field is rejected; demo-token validity hinges on it.
func ParseUserRecord(raw string) (*UserRecord, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[ParseUserRecord] empty user record")
	}
	var record UserRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, errors.Wrapf(err, "[ParseUserRecord] unmarshal user record")
	}
	if record.Email == "" {
		return nil, errors.Wrapf(errors.ErrMissingField, "[ParseUserRecord] user record has no email")
	}
	return &record, nil
}

// IsDemoSentinel reports whether the access token is a demo-mode sentinel
// rather than a structured token.
func IsDemoSentinel(accessToken string) bool {
	return strings.HasPrefix(accessToken, DemoSentinelPrefix)
}

// Claims is the subset of access-token claims the gateway inspects.
type Claims struct {
	Subject string
	Email   string
	Expiry  time.Time
	HasExp  bool
}

// ExtractClaims parses a structured access token without verifying its
// signature; the gateway only ever treats tokens as hints and lets the
// auth service be the authority. The token must have exactly three
// segments with a JSON-decodable middle segment.
func ExtractClaims(accessToken string) (*Claims, error) {
	if len(strings.Split(accessToken, ".")) != 3 {
		return nil, errors.Wrapf(errors.ErrMalformedToken, "[ExtractClaims] token is not three segments")
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedToken, "[ExtractClaims] %v", err)
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMalformedToken, "[ExtractClaims] claims are not a map")
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.Expiry = exp.Time
		claims.HasExp = true
	}
	return claims, nil
}

// ExpiredAt reports whether the claims carry an expiry earlier than now.
// Claims without an exp claim never report expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	return c.HasExp && c.Expiry.Before(now)
}
