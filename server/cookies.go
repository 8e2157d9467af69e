package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atlaserp/portal-gateway/token"
)

// Cookie names the portal stores credentials under.
const (
	CookieAccessToken  = "authToken"
	CookieRefreshToken = "refreshToken"
	CookieUserData     = "userData"
)

// setAuthCookies stores the credential triple. The user-data cookie is
// readable by portal scripts; the token cookies are not.
func (s *Server) setAuthCookies(w http.ResponseWriter, pair token.Pair, user *token.UserRecord) {
	secure := s.config.GetCookieSecure()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieAccessToken,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CookieRefreshToken,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(s.config.GetRefreshTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	if user == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieUserData,
		Value:    encodeCookieValue(raw),
		Path:     "/",
		MaxAge:   int(s.config.GetRefreshTokenTTL().Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies drops all three stored values.
func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken, CookieUserData} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			Secure:   s.config.GetCookieSecure(),
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// credentialTriple reads the stored access token, refresh token, and
// user record off the request. The access token falls back to a bearer
// authorization header when the cookie is absent.
func credentialTriple(r *http.Request) (accessToken, refreshToken, userData string) {
	if c, err := r.Cookie(CookieAccessToken); err == nil {
		accessToken = c.Value
	}
	if accessToken == "" {
		accessToken = bearerToken(r)
	}
	if c, err := r.Cookie(CookieRefreshToken); err == nil {
		refreshToken = c.Value
	}
	if c, err := r.Cookie(CookieUserData); err == nil {
		userData = decodeCookieValue(c.Value)
	}
	return accessToken, refreshToken, userData
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Cookie values cannot carry raw JSON (quotes, commas), so the user
// record travels URL-escaped the way browsers store it.
func encodeCookieValue(raw []byte) string {
	return url.QueryEscape(string(raw))
}

func decodeCookieValue(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
