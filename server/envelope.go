package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlaserp/portal-gateway/internal/errors"
	"github.com/atlaserp/portal-gateway/upstream"
)

// envelope is the uniform JSON wrapper every API endpoint emits. The
// backend services answer in two shapes; the gateway re-emits only this
// one.
type envelope struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
}

const (
	statusSuccess = "success"
	statusError   = "error"

	msgGenericFailure = "An unexpected error occurred. Please try again later."
	msgMissingBearer  = "Authorization token is required"
)

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeEnvelope(w, http.StatusOK, statusSuccess, message, data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, statusCode, statusError, message, nil)
}

func writeEnvelope(w http.ResponseWriter, statusCode int, status, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(envelope{
		Status:     status,
		Message:    message,
		Data:       data,
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error().Err(err).Msg("encoding response envelope")
	}
}

// writeUpstreamError maps an upstream or auth-flow failure onto the
// envelope. Structured upstream errors are echoed verbatim with their
// status; everything else collapses to a generic 500 so no internal
// detail reaches the browser unshaped.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		writeError(w, statusErr.Status, statusErr.Message)
		return
	}

	switch {
	case errors.Is(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, errors.ErrInvalidRefreshToken),
		errors.Is(err, errors.ErrSessionExpired),
		errors.Is(err, errors.ErrSessionRevoked),
		errors.Is(err, errors.ErrRefreshFailed):
		writeError(w, http.StatusUnauthorized, "Session expired, please log in again")
	case errors.Is(err, errors.ErrMissingField), errors.Is(err, errors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("upstream call failed")
		writeError(w, http.StatusInternalServerError, msgGenericFailure)
	}
}
