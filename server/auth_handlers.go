package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlaserp/portal-gateway/token"
	"github.com/atlaserp/portal-gateway/upstream"
)

var (
	pinPattern = regexp.MustCompile(`^\d{4,6}$`)
	otpPattern = regexp.MustCompile(`^\d{6}$`)
)

const (
	msgPINFormat      = "PIN must be 4 to 6 digits"
	msgPINMustDiffer  = "New PIN must be different from current PIN"
	msgOTPFormat      = "OTP must be exactly 6 digits"
	msgPasswordsMatch = "Password confirmation does not match"
)

// LoginHandler authenticates against the auth service and sets the
// credential cookies on success. The token pair is also echoed in the
// body for API consumers that manage their own storage.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "password is required")
			return
		}

		result, err := s.authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}

		s.setAuthCookies(w, result.Pair, &result.User)
		writeSuccess(w, "Login successful", map[string]any{
			"accessToken":  result.Pair.AccessToken,
			"refreshToken": result.Pair.RefreshToken,
			"user":         result.User,
		})
	}
}

// LogoutHandler invalidates the session and clears the cookies. Logout
// succeeds from the browser's point of view even when the upstream call
// fails: the credentials are gone either way.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, refreshToken, _ := credentialTriple(r)
		if refreshToken == "" {
			var req struct {
				RefreshToken string `json:"refreshToken"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			refreshToken = req.RefreshToken
		}

		if refreshToken != "" {
			if err := s.authService.Logout(r.Context(), accessToken, refreshToken); err != nil {
				log.Warn().Err(err).Msg("logout cleanup failed")
			}
		}

		s.clearAuthCookies(w)
		writeSuccess(w, "Logged out", nil)
	}
}

// RefreshHandler exchanges a refresh token for a rotated pair. The token
// is read from the body first, falling back to the cookie.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}
		refreshToken := req.RefreshToken
		if refreshToken == "" {
			if c, err := r.Cookie(CookieRefreshToken); err == nil {
				refreshToken = c.Value
			}
		}
		if refreshToken == "" {
			writeError(w, http.StatusBadRequest, "refreshToken is required")
			return
		}

		pair, err := s.authService.Refresh(r.Context(), refreshToken)
		if err != nil {
			s.clearAuthCookies(w)
			writeUpstreamError(w, err)
			return
		}

		s.setAuthCookies(w, *pair, nil)
		writeSuccess(w, "Token refreshed", pair)
	}
}

// SessionHandler runs the access guard over the stored credentials and
// reports the auth state. A rotated pair from a guard-triggered refresh
// is written back to the cookies before responding.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, refreshToken, userData := credentialTriple(r)

		decision := s.guard.Check(r.Context(), accessToken, refreshToken, userData)
		if decision.RotatedPair != nil {
			s.setAuthCookies(w, *decision.RotatedPair, decision.User)
		}
		if decision.ClearCredentials {
			s.clearAuthCookies(w)
		}
		if !decision.Authenticated {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		writeSuccess(w, "Authenticated", map[string]any{
			"authenticated": true,
			"user":          decision.User,
		})
	}
}

// sessionView is the client-visible slice of a session record. The
// refresh-token hash never leaves the store.
type sessionView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionListHandler lists the caller's active sessions.
func (s *Server) SessionListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		list, err := s.authService.ListSessions(r.Context(), user.ID)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}

		views := make([]sessionView, 0, len(list))
		for _, session := range list {
			views = append(views, sessionView{
				ID:        session.ID,
				CreatedAt: session.CreatedAt,
				ExpiresAt: session.ExpiresAt,
			})
		}
		writeSuccess(w, "Active sessions", views)
	}
}

// SessionRevokeAllHandler kills every session of the caller and clears
// the local cookies.
func (s *Server) SessionRevokeAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		if err := s.authService.RevokeAllForUser(r.Context(), user.ID); err != nil {
			writeUpstreamError(w, err)
			return
		}
		s.clearAuthCookies(w)
		writeSuccess(w, "All sessions revoked", nil)
	}
}

// ResetPasswordHandler forwards the reset and, on success, revokes every
// session of the user so stolen refresh tokens die with the old password.
func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	forward := s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodPost,
		upstreamPath:   upstream.PathResetPassword,
		required:       []string{"token", "password", "confirmPassword"},
		checks: []fieldCheck{
			func(body map[string]any) string {
				if stringField(body, "password") != stringField(body, "confirmPassword") {
					return msgPasswordsMatch
				}
				return ""
			},
		},
		successMessage: "Password reset successful",
	})

	return func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		forward(recorder, r)

		if recorder.status == http.StatusOK {
			if _, _, userData := credentialTriple(r); userData != "" {
				if user, err := token.ParseUserRecord(userData); err == nil {
					if err := s.authService.RevokeAllForUser(r.Context(), user.ID); err != nil {
						log.Warn().Err(err).Str("user_id", user.ID).Msg("revoking sessions after password reset")
					}
				}
			}
		}
	}
}

// ForgotPasswordHandler kicks off the email-based reset flow.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodPost,
		upstreamPath:   upstream.PathForgotPassword,
		required:       []string{"email"},
		successMessage: "Password reset instructions sent",
	})
}

// VerifyOTPHandler checks the one-time code from the reset email.
func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodPost,
		upstreamPath:   upstream.PathVerifyOTP,
		required:       []string{"email", "otp"},
		checks: []fieldCheck{
			func(body map[string]any) string {
				if !otpPattern.MatchString(stringField(body, "otp")) {
					return msgOTPFormat
				}
				return ""
			},
		},
		successMessage: "OTP verified",
	})
}

// ProfileGetHandler fetches the caller's profile from the auth service.
func (s *Server) ProfileGetHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodGet,
		upstreamPath:   upstream.PathProfile,
		requireBearer:  true,
		allowEmptyBody: true,
	})
}

// ProfileUpdateHandler forwards profile changes.
func (s *Server) ProfileUpdateHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodPut,
		upstreamPath:   upstream.PathProfile,
		requireBearer:  true,
		successMessage: "Profile updated",
	})
}

// PIN management endpoints. Create and update forward to the auth
// service PIN resource; reset deletes it.

func (s *Server) CreatePINHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodPost,
		upstreamPath:   upstream.PathPIN,
		requireBearer:  true,
		required:       []string{"pin"},
		checks:         []fieldCheck{checkPINFormat("pin")},
		successMessage: "PIN created",
	})
}

func (s *Server) UpdatePINHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodPut,
		upstreamPath:   upstream.PathPIN,
		requireBearer:  true,
		required:       []string{"currentPin", "newPin"},
		checks: []fieldCheck{
			checkPINFormat("currentPin"),
			checkPINFormat("newPin"),
			func(body map[string]any) string {
				if stringField(body, "currentPin") == stringField(body, "newPin") {
					return msgPINMustDiffer
				}
				return ""
			},
		},
		successMessage: "PIN updated",
	})
}

func (s *Server) ResetPINHandler() http.HandlerFunc {
	return s.ForwardHandler(forwardSpec{
		upstreamMethod: http.MethodDelete,
		upstreamPath:   upstream.PathPIN,
		requireBearer:  true,
		allowEmptyBody: true,
		successMessage: "PIN reset",
	})
}

func checkPINFormat(field string) fieldCheck {
	return func(body map[string]any) string {
		if !pinPattern.MatchString(stringField(body, field)) {
			return msgPINFormat
		}
		return ""
	}
}

// requireUser resolves the caller through the access guard, writing the
// 401 itself when the credentials do not hold up.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*token.UserRecord, bool) {
	accessToken, refreshToken, userData := credentialTriple(r)
	if accessToken == "" {
		writeError(w, http.StatusUnauthorized, msgMissingBearer)
		return nil, false
	}

	decision := s.guard.Check(r.Context(), accessToken, refreshToken, userData)
	if !decision.Authenticated || decision.User == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	if decision.RotatedPair != nil {
		s.setAuthCookies(w, *decision.RotatedPair, decision.User)
	}
	return decision.User, true
}

// statusRecorder captures the status a wrapped handler writes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
