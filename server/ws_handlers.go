package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/atlaserp/portal-gateway/messaging"
)

// upgrader configures the WebSocket upgrade. Origin checking is handled
// by the CORS middleware in front of the ticket endpoint; the upgrade
// itself is authenticated by the ticket.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WsTicketHandler mints a single-use ticket for the WebSocket upgrade.
// Browsers cannot attach an Authorization header to the upgrade request,
// so authentication happens here instead.
func (s *Server) WsTicketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		id, ticket := s.tickets.Mint(user.ID, user.Email)
		writeSuccess(w, "Ticket issued", map[string]any{
			"ticket":    id,
			"expiresAt": ticket.ExpiresAt,
		})
	}
}

// WsHandler upgrades the connection for a redeemed ticket and hands it
// to the notification hub.
func (s *Server) WsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("ticket")
		if id == "" {
			writeError(w, http.StatusUnauthorized, "ticket query parameter is required")
			return
		}
		ticket, ok := s.tickets.Redeem(id)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired ticket")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}

		messaging.NewClient(s.hub, conn, ticket.UserID, ticket.Email).Serve()
	}
}
