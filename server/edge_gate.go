package server

import (
	"net/http"
	"net/url"

	"github.com/atlaserp/portal-gateway/routes"
)

// EdgeGateMiddleware is the coarse routing gate in front of the portal
// shell. It checks only token PRESENCE, never validity: an expired or
// forged token passes the edge and is caught by the access guard before
// protected content is served.
//
// Unauthenticated requests for protected paths bounce to the login page
// with the original path carried in the redirect parameter. Requests for
// the login page while a token is present bounce to the dashboard, or to
// a validated redirect target when one is supplied.
func (s *Server) EdgeGateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, _, _ := credentialTriple(r)
		hasToken := accessToken != ""

		if routes.IsLoginPath(r.URL.Path) && hasToken {
			target := routes.SafeRedirectTarget(r.URL.Query().Get(routes.RedirectParam))
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		if routes.Classify(r.URL.Path) == routes.ClassProtected && !hasToken {
			loginURL := routes.LoginPath + "?" + routes.RedirectParam + "=" + url.QueryEscape(r.URL.Path)
			http.Redirect(w, r, loginURL, http.StatusSeeOther)
			return
		}

		next(w, r)
	}
}
