package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/atlaserp/portal-gateway/routes"
	"github.com/atlaserp/portal-gateway/server/ssostate"
	"github.com/atlaserp/portal-gateway/token"
	"github.com/atlaserp/portal-gateway/upstream"
)

// ssoEnabled reports whether the OIDC integration is configured.
func (s *Server) ssoEnabled() bool {
	return s.config.GetSsoIssuerURL() != "" && s.ssoState != nil
}

// getOidcConfig initialises the OIDC provider on first use. Discovery
// needs the issuer to be reachable, so it cannot run at startup.
func (s *Server) getOidcConfig(r *http.Request) (*OidcConfig, error) {
	s.ssoOidcLock.Lock()
	defer s.ssoOidcLock.Unlock()

	if s.ssoOidc != nil {
		return s.ssoOidc, nil
	}

	provider, err := oidc.NewProvider(r.Context(), s.config.GetSsoIssuerURL())
	if err != nil {
		return nil, fmt.Errorf("[Server getOidcConfig] provider discovery: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     s.config.GetSsoClientID(),
		ClientSecret: s.config.GetSsoClientSecret(),
		RedirectURL:  s.config.GetSsoRedirectURL(),
		Endpoint:     provider.Endpoint(),
		Scopes:       s.config.GetSsoScopes(),
	}

	s.ssoOidc = &OidcConfig{
		OidcProvider: provider,
		OAuth2Config: oauth2Config,
		OidcVerifier: provider.Verifier(&oidc.Config{ClientID: oauth2Config.ClientID}),
	}
	return s.ssoOidc, nil
}

// SsoLoginHandler starts the OIDC authorization-code flow with PKCE.
func (s *Server) SsoLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ssoEnabled() {
			writeError(w, http.StatusNotFound, "SSO is not configured")
			return
		}

		oidcConfig, err := s.getOidcConfig(r)
		if err != nil {
			log.Error().Err(err).Msg("sso provider discovery failed")
			writeError(w, http.StatusInternalServerError, msgGenericFailure)
			return
		}

		state := generateRandomString(32)
		nonce := generateRandomString(32)
		verifier := oauth2.GenerateVerifier()

		err = s.ssoState.Upsert(state, &ssostate.FlowState{
			CodeVerifier: verifier,
			Nonce:        nonce,
			ReturnURL:    r.URL.Query().Get(routes.RedirectParam),
			CreatedAt:    time.Now(),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, msgGenericFailure)
			return
		}

		authURL := oidcConfig.OAuth2Config.AuthCodeURL(state,
			oauth2.S256ChallengeOption(verifier),
			oidc.Nonce(nonce),
		)
		http.Redirect(w, r, authURL, http.StatusSeeOther)
	}
}

// SsoCallbackHandler finishes the flow: exchanges the code, verifies the
// ID token, records a session, and sets the credential cookies.
func (s *Server) SsoCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ssoEnabled() {
			writeError(w, http.StatusNotFound, "SSO is not configured")
			return
		}

		// FormValue covers both GET query params and form_post mode
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		if errorParam != "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc))
			return
		}
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "Missing code or state parameter")
			return
		}

		flowState, err := s.ssoState.Get(state)
		if err != nil || flowState == nil {
			writeError(w, http.StatusBadRequest, "Invalid state parameter")
			return
		}
		// Clean up state after use
		if err := s.ssoState.Delete(state); err != nil {
			writeError(w, http.StatusInternalServerError, msgGenericFailure)
			return
		}

		oidcConfig, err := s.getOidcConfig(r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, msgGenericFailure)
			return
		}

		oauth2Token, err := oidcConfig.OAuth2Config.Exchange(
			r.Context(),
			code,
			oauth2.VerifierOption(flowState.CodeVerifier),
		)
		if err != nil {
			log.Error().Err(err).Msg("sso token exchange failed")
			writeError(w, http.StatusInternalServerError, "Token exchange failed")
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			writeError(w, http.StatusInternalServerError, "No ID token in response")
			return
		}

		idToken, err := oidcConfig.OidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "ID token verification failed")
			return
		}

		var claims struct {
			Nonce string `json:"nonce"`
			Sub   string `json:"sub"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to extract claims")
			return
		}

		// Validate nonce to prevent replay attacks
		if claims.Nonce != flowState.Nonce {
			writeError(w, http.StatusUnauthorized, "Invalid nonce")
			return
		}

		result := &upstream.LoginResult{
			Pair: token.Pair{
				AccessToken:  oauth2Token.AccessToken,
				RefreshToken: oauth2Token.RefreshToken,
			},
			User: token.UserRecord{
				ID:    claims.Sub,
				Email: claims.Email,
				Name:  claims.Name,
			},
		}
		if err := s.authService.Adopt(r.Context(), result); err != nil {
			log.Error().Err(err).Msg("recording sso session")
			writeError(w, http.StatusInternalServerError, msgGenericFailure)
			return
		}

		s.setAuthCookies(w, result.Pair, &result.User)
		http.Redirect(w, r, routes.SafeRedirectTarget(flowState.ReturnURL), http.StatusSeeOther)
	}
}

func generateRandomString(n int) string {
	b := make([]byte, n)
	rand.Read(b) //nolint:errcheck // crypto/rand.Read always fills b on supported platforms
	return hex.EncodeToString(b)
}
