package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// fieldCheck validates a decoded request body. It returns a failure
// message, or "" when the body passes.
type fieldCheck func(body map[string]any) string

// forwardSpec configures one validate-and-forward endpoint. The near
// identical proxy handlers collapse into this one routine; each route
// differs only in its spec.
type forwardSpec struct {
	upstreamMethod string
	upstreamPath   string
	requireBearer  bool
	allowEmptyBody bool
	required       []string
	checks         []fieldCheck
	successMessage string // used when the upstream reply carries no message
}

// ForwardHandler builds the handler for a forwardSpec: bearer check,
// body decode, field validation, upstream call, re-envelope.
func (s *Server) ForwardHandler(spec forwardSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bearer string
		if spec.requireBearer {
			bearer = bearerToken(r)
			if bearer == "" {
				if c, err := r.Cookie(CookieAccessToken); err == nil {
					bearer = c.Value
				}
			}
			if bearer == "" {
				writeError(w, http.StatusUnauthorized, msgMissingBearer)
				return
			}
		}

		body := map[string]any{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		} else if !spec.allowEmptyBody {
			writeError(w, http.StatusBadRequest, "Request body is required")
			return
		}

		for _, field := range spec.required {
			if !hasField(body, field) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is required", field))
				return
			}
		}
		for _, check := range spec.checks {
			if msg := check(body); msg != "" {
				writeError(w, http.StatusBadRequest, msg)
				return
			}
		}

		var payload any
		if len(body) > 0 {
			payload = body
		}
		data, message, err := s.authClient.Forward(r.Context(), spec.upstreamMethod, spec.upstreamPath, payload, bearer)
		if err != nil {
			writeUpstreamError(w, err)
			return
		}

		if message == "" {
			message = spec.successMessage
		}
		var responseData any
		if len(data) > 0 {
			responseData = json.RawMessage(data)
		}
		writeSuccess(w, message, responseData)
	}
}

// hasField reports whether the body carries a non-empty value for the
// field. Empty strings count as missing.
func hasField(body map[string]any, field string) bool {
	value, ok := body[field]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return s != ""
	}
	return true
}

// stringField returns the field as a string, or "" when absent or not a
// string.
func stringField(body map[string]any, field string) string {
	s, _ := body[field].(string)
	return s
}
