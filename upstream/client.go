package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlaserp/portal-gateway/internal/errors"
)

// Envelope is the response wrapper the backend services emit. Two shapes
// exist in the wild: `status` as a "success"/"error" string and `success`
// as a boolean with a numeric `status`. Both are accepted here; the
// gateway re-emits only the string-enum shape.
type Envelope struct {
	Status     string
	Success    *bool
	Message    string
	Data       json.RawMessage
	StatusCode int
	Timestamp  string
}

// UnmarshalJSON accepts both envelope shapes. The status field is a
// "success"/"error" string in one shape and a numeric HTTP status in the
// other, so it cannot decode into a single typed field.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var aux struct {
		Status     json.RawMessage `json:"status"`
		Success    *bool           `json:"success"`
		Message    string          `json:"message"`
		Data       json.RawMessage `json:"data"`
		StatusCode int             `json:"statusCode"`
		Timestamp  string          `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Success = aux.Success
	e.Message = aux.Message
	e.Data = aux.Data
	e.StatusCode = aux.StatusCode
	e.Timestamp = aux.Timestamp

	if len(aux.Status) > 0 {
		var s string
		if err := json.Unmarshal(aux.Status, &s); err == nil {
			e.Status = s
			return nil
		}
		var n int
		if err := json.Unmarshal(aux.Status, &n); err == nil && e.StatusCode == 0 {
			e.StatusCode = n
		}
	}
	return nil
}

// OK reports whether the envelope signals success in either shape.
func (e *Envelope) OK() bool {
	if e.Success != nil {
		return *e.Success
	}
	return e.Status == "success"
}

// StatusError is a structured upstream failure. Its status code is echoed
// verbatim to the portal client.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Message)
}

// Client issues JSON requests against one backend service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. The timeout is
// the default per-request ceiling; individual calls may override it via
// context deadlines.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do sends a JSON request and decodes the enveloped response. A non-nil
// body is JSON-encoded; a non-empty bearer sets the Authorization header.
// Failures are either a *StatusError (structured upstream rejection) or a
// wrapped ErrUpstreamUnavailable (network/shape problems).
func (c *Client) Do(ctx context.Context, method, path string, body any, bearer string) (*Envelope, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Client.Do] encoding request body: %w", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("[Client.Do] building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("upstream call failed")
		return nil, errors.Wrapf(errors.ErrUpstreamUnavailable, "[Client.Do] %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Warn().Err(err).Str("path", path).Int("http_status", resp.StatusCode).Msg("upstream response not decodable")
		return nil, errors.Wrapf(errors.ErrUpstreamUnavailable, "[Client.Do] decoding %s response", path)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("http_status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream call")

	if !envelope.OK() || resp.StatusCode >= 400 {
		status := envelope.StatusCode
		if status == 0 {
			status = resp.StatusCode
		}
		return nil, &StatusError{Status: status, Message: envelope.Message}
	}
	return &envelope, nil
}
