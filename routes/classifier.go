package routes

import "strings"

// Class is the access classification of a request path.
type Class int

const (
	// ClassProtected paths require a valid access token.
	ClassProtected Class = iota
	// ClassPublic paths are always reachable regardless of auth state.
	ClassPublic
)

// Path prefixes served by the portal. Fixed at process start; never
// mutated at runtime.
var (
	ProtectedPrefixes = []string{
		"/dashboard",
		"/users",
		"/modules",
		"/roles",
		"/notifications",
		"/settings",
		"/reports",
		"/inventory",
		"/orders",
		"/payments",
		"/profile",
		"/test-protected",
	}

	PublicPrefixes = []string{
		"/",
		"/login",
		"/register",
		"/forgot-password",
		"/reset-password",
		"/verify-email",
		"/401",
		"/404",
		"/500",
	}
)

const (
	// LoginPath is where unauthenticated requests for protected paths are sent.
	LoginPath = "/login"
	// DashboardPath is where authenticated requests for the login page are sent.
	DashboardPath = "/dashboard"
	// RedirectParam carries the originally requested path across the login flow.
	RedirectParam = "redirect"
)

// Classify returns the access class of a path. Protected prefixes are
// checked first so that overlap between the two sets resolves to
// protected. Paths matching neither set are treated as protected.
func Classify(path string) Class {
	if matchesProtected(path) {
		return ClassProtected
	}
	if matchesPublic(path) {
		return ClassPublic
	}
	return ClassProtected
}

// IsLoginPath reports whether the path is the login or landing page,
// where an already-authenticated request should bounce to the dashboard.
func IsLoginPath(path string) bool {
	return path == LoginPath || path == "/"
}

// SafeRedirectTarget validates a requested post-login redirect target.
// Only targets inside the protected set are honoured; anything else
// (external URLs, public paths, garbage) falls back to the dashboard.
func SafeRedirectTarget(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return DashboardPath
	}
	if matchesProtected(target) {
		return target
	}
	return DashboardPath
}

func matchesProtected(path string) bool {
	for _, prefix := range ProtectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func matchesPublic(path string) bool {
	for _, prefix := range PublicPrefixes {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
