package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/atlaserp/portal-gateway/authflow"
	"github.com/atlaserp/portal-gateway/internal/config"
	"github.com/atlaserp/portal-gateway/messaging"
	"github.com/atlaserp/portal-gateway/server"
	"github.com/atlaserp/portal-gateway/server/ssostate"
	"github.com/atlaserp/portal-gateway/sessions"
	"github.com/atlaserp/portal-gateway/upstream"
)

type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"statusCode"`
	Timestamp  string          `json:"timestamp"`
}

func newGateway(t *testing.T, authServiceURL string, options ...authflow.ServiceOption) *server.Server {
	t.Helper()

	authClient := upstream.NewAuthClient(authServiceURL, 2*time.Second, 2*time.Second)
	authService, err := authflow.NewService(authflow.NewLiveStrategy(authClient), sessions.NewInMemoryRepo(), time.Hour, options...)
	require.NoError(t, err)

	gateway, err := server.New(config.New(), authService, authflow.NewGuard(authService), authClient,
		messaging.NewHub(), messaging.NewTicketStore(), ssostate.NewInMemoryRepo())
	require.NoError(t, err)
	return gateway
}

func doJSON(t *testing.T, gateway *server.Server, method, target, body string, modify ...func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range modify {
		m(req)
	}

	rec := httptest.NewRecorder()
	gateway.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withAuthCookie(value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: server.CookieAccessToken, Value: value})
	}
}

func TestEdgeGate(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:1")

	t.Run("protected path without token redirects to login", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/settings", "")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login?redirect=%2Fsettings", rec.Header().Get("Location"))
	})

	t.Run("public path without token is served", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/forgot-password", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("login page with token redirects to dashboard", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/login", "", withAuthCookie("whatever-the-token-is"))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("login page with token honours a protected redirect target", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/login?redirect=%2Fsettings%2Fprofile", "", withAuthCookie("whatever-the-token-is"))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/settings/profile", rec.Header().Get("Location"))
	})

	t.Run("external redirect target falls back to dashboard", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/login?redirect=https%3A%2F%2Fevil.example", "", withAuthCookie("whatever-the-token-is"))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("presence only: a garbage token passes the edge", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/dashboard", "", withAuthCookie("garbage"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown path is treated as protected", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/made-up-page", "")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login?redirect=%2Fmade-up-page", rec.Header().Get("Location"))
	})
}

func TestPINValidation(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:1")

	t.Run("create-pin without bearer is rejected", func(t *testing.T) {
		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/create-pin", `{"pin":"1234"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "error", env.Status)
		require.Equal(t, "Authorization token is required", env.Message)
	})

	t.Run("create-pin rejects a non-numeric pin", func(t *testing.T) {
		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/create-pin", `{"pin":"12ab"}`, withBearer("tok"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, env.Message, "4 to 6 digits")
	})

	t.Run("create-pin rejects a too-long pin", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodPost, "/api/auth/create-pin", `{"pin":"1234567"}`, withBearer("tok"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update-pin rejects identical current and new pins", func(t *testing.T) {
		rec, env := doJSON(t, gateway, http.MethodPut, "/api/auth/update-pin", `{"currentPin":"1234","newPin":"1234"}`, withBearer("tok"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, env.Message, "must be different")
	})

	t.Run("update-pin requires both fields", func(t *testing.T) {
		rec, env := doJSON(t, gateway, http.MethodPut, "/api/auth/update-pin", `{"newPin":"4321"}`, withBearer("tok"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "currentPin is required", env.Message)
	})
}

func TestOTPValidation(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:1")

	for _, otp := range []string{"12345", "1234567", "12a456", ""} {
		rec, _ := doJSON(t, gateway, http.MethodPost, "/api/auth/verify-otp",
			`{"email":"a@b.com","otp":"`+otp+`"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, "otp %q should be rejected", otp)
	}
}

func TestLogin(t *testing.T) {
	t.Run("unreachable auth service yields a shaped 500", func(t *testing.T) {
		gateway := newGateway(t, "http://127.0.0.1:1")

		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "error", env.Status)
		require.Equal(t, http.StatusInternalServerError, env.StatusCode)
		_, err := time.Parse(time.RFC3339, env.Timestamp)
		require.NoError(t, err)
	})

	t.Run("demo fallback fabricates a login when upstream is down", func(t *testing.T) {
		cfg := config.New()
		demo := authflow.NewDemoStrategy(cfg.GetDemoEmail(), cfg.GetDemoPasswordHash())
		gateway := newGateway(t, "http://127.0.0.1:1", authflow.WithDemoFallback(demo))

		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/login",
			`{"email":"`+cfg.GetDemoEmail()+`","password":"demo1234"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "success", env.Status)

		var data struct {
			AccessToken string `json:"accessToken"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.True(t, strings.HasPrefix(data.AccessToken, "demo-token-"))

		cookies := rec.Result().Cookies()
		names := make(map[string]bool)
		for _, c := range cookies {
			names[c.Name] = true
		}
		require.True(t, names[server.CookieAccessToken])
		require.True(t, names[server.CookieRefreshToken])
		require.True(t, names[server.CookieUserData])
	})

	t.Run("missing fields are rejected before any upstream call", func(t *testing.T) {
		gateway := newGateway(t, "http://127.0.0.1:1")

		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "password is required", env.Message)
	})

	t.Run("structured upstream error is echoed verbatim", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":     "error",
				"message":    "Account locked",
				"statusCode": http.StatusForbidden,
			})
		}))
		defer backend.Close()

		gateway := newGateway(t, backend.URL)
		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Account locked", env.Message)
	})

	t.Run("successful login proxies the upstream payload", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/login", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  "success",
				"message": "Login successful",
				"data": map[string]any{
					"accessToken":  "aaa.bbb.ccc",
					"refreshToken": "refresh-1",
					"user":         map[string]any{"id": "u1", "email": "a@b.com", "name": "A B"},
				},
			})
		}))
		defer backend.Close()

		gateway := newGateway(t, backend.URL)
		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "success", env.Status)

		var data struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Equal(t, "refresh-1", data.RefreshToken)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("missing refresh token is a 400", func(t *testing.T) {
		gateway := newGateway(t, "http://127.0.0.1:1")

		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/refresh", `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "refreshToken is required", env.Message)
	})

	t.Run("unknown refresh token clears cookies", func(t *testing.T) {
		gateway := newGateway(t, "http://127.0.0.1:1")

		rec, env := doJSON(t, gateway, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "error", env.Status)

		cleared := 0
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge < 0 {
				cleared++
			}
		}
		require.Equal(t, 3, cleared)
	})
}

func TestWsTicket(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:1")
	userData := url.QueryEscape(`{"id":"demo-user","email":"demo@example.com","name":"Demo User"}`)

	t.Run("authenticated caller gets a ticket", func(t *testing.T) {
		rec, env := doJSON(t, gateway, http.MethodPost, "/api/ws/ticket", "",
			withAuthCookie("demo-token-0123456789abcdef"),
			func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: server.CookieUserData, Value: userData})
			})
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Ticket string `json:"ticket"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEmpty(t, data.Ticket)
	})

	t.Run("bearer-only caller gets a ticket", func(t *testing.T) {
		claims := jwtlib.MapClaims{
			"sub":   "user-1",
			"email": "john.doe@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
		signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		rec, env := doJSON(t, gateway, http.MethodPost, "/api/ws/ticket", "", withBearer(signed))
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Ticket string `json:"ticket"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEmpty(t, data.Ticket)
	})

	t.Run("unauthenticated caller is rejected", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodPost, "/api/ws/ticket", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("websocket upgrade without ticket is rejected", func(t *testing.T) {
		rec, _ := doJSON(t, gateway, http.MethodGet, "/api/ws", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:1")

	rec, env := doJSON(t, gateway, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)
}
