package server

func (s *Server) initRoutes() {
	// AUTH PROXY
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthProfile, ChainMiddleware(s.ProfileGetHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteAuthProfile, ChainMiddleware(s.ProfileUpdateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthVerifyOTP, ChainMiddleware(s.VerifyOTPHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))

	// PIN management
	s.RegisterRouteHandler("POST "+RouteAuthCreatePIN, ChainMiddleware(s.CreatePINHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteAuthUpdatePIN, ChainMiddleware(s.UpdatePINHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAuthResetPIN, ChainMiddleware(s.ResetPINHandler(), s.APIMiddleware()...))

	// Session management
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSessionList, ChainMiddleware(s.SessionListHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAuthSessionList, ChainMiddleware(s.SessionRevokeAllHandler(), s.APIMiddleware()...))

	// SSO
	s.RegisterRouteHandler("GET "+RouteSsoLogin, ChainMiddleware(s.SsoLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSsoCallback, ChainMiddleware(s.SsoCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSsoCallback, ChainMiddleware(s.SsoCallbackHandler(), s.APIMiddleware()...)) // form_post response mode

	// Notification bridge
	s.RegisterRouteHandler("POST "+RouteWsTicket, ChainMiddleware(s.WsTicketHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteWs, s.WsHandler())

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Portal shell: everything else goes through the edge gate.
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.ShellHandler(), s.PageMiddleware(s.EdgeGateMiddleware)...))
}
