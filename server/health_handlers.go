package server

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// HealthHandler reports liveness. No upstream checks: the gateway stays
// healthy even when the backend services are down.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "ok", map[string]any{
			"app":    s.config.GetAppName(),
			"env":    s.env,
			"uptime": time.Since(startTime).Round(time.Second).String(),
		})
	}
}
