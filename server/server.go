package server

import (
	"fmt"
	stdlog "log"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/atlaserp/portal-gateway/authflow"
	"github.com/atlaserp/portal-gateway/internal/config"
	"github.com/atlaserp/portal-gateway/messaging"
	"github.com/atlaserp/portal-gateway/server/ssostate"
	"github.com/atlaserp/portal-gateway/upstream"
)

// OidcConfig bundles the provider handles for the SSO integration.
type OidcConfig struct {
	OidcProvider *oidc.Provider
	OAuth2Config *oauth2.Config
	OidcVerifier *oidc.IDTokenVerifier
}

// Server is the portal gateway's HTTP surface: the edge request gate,
// the auth proxy endpoints, and the notification WebSocket bridge.
type Server struct {
	env         string // Environment (e.g., "DEV", "production")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	authService *authflow.Service
	guard       *authflow.Guard
	authClient  *upstream.AuthClient
	hub         *messaging.Hub
	tickets     *messaging.TicketStore
	ssoState    ssostate.Repo

	ssoOidc     *OidcConfig
	ssoOidcLock sync.Mutex
}

// New assembles the gateway server.
func New(cfg config.Config, authService *authflow.Service, guard *authflow.Guard, authClient *upstream.AuthClient, hub *messaging.Hub, tickets *messaging.TicketStore, ssoStateRepo ssostate.Repo) (*Server, error) {
	if authService == nil || guard == nil || authClient == nil {
		return nil, fmt.Errorf("[Server New] auth service, guard, and auth client are required")
	}

	s := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		authService: authService,
		guard:       guard,
		authClient:  authClient,
		hub:         hub,
		tickets:     tickets,
		ssoState:    ssoStateRepo,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	stdlog.Printf("[%-19s] %s\n", displayMethod, path)
}
