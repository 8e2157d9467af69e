package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth proxy routes
	RouteAuthLogin          = "/api/auth/login"
	RouteAuthLogout         = "/api/auth/logout"
	RouteAuthRefresh        = "/api/auth/refresh"
	RouteAuthProfile        = "/api/auth/profile"
	RouteAuthForgotPassword = "/api/auth/forgot-password"
	RouteAuthVerifyOTP      = "/api/auth/verify-otp"
	RouteAuthResetPassword  = "/api/auth/reset-password"
	RouteAuthCreatePIN      = "/api/auth/create-pin"
	RouteAuthUpdatePIN      = "/api/auth/update-pin"
	RouteAuthResetPIN       = "/api/auth/reset-pin"

	// Session management routes
	RouteAuthSession     = "/api/auth/session"
	RouteAuthSessionList = "/api/auth/sessions"

	// SSO routes
	RouteSsoLogin    = "/api/auth/sso/login"
	RouteSsoCallback = "/api/auth/sso/callback"

	// Notification WebSocket routes
	RouteWsTicket = "/api/ws/ticket"
	RouteWs       = "/api/ws"

	// Operational routes
	RouteHealth = "/api/health"
)
