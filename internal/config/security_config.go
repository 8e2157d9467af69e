package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetDemoMode() bool
	GetDemoEmail() string
	GetDemoPasswordHash() string
	GetMaxSessionAge() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetCookieSecure() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetDemoMode reports whether the offline demo auth strategy is enabled.
// Never enable in production: demo mode fabricates successful logins.
func (Security) GetDemoMode() bool {
	enabled, _ := strconv.ParseBool(GetEnv("DEMO_MODE", "false"))
	return enabled
}

func (Security) GetDemoEmail() string {
	return GetEnv("DEMO_EMAIL", "demo@example.com")
}

// GetDemoPasswordHash returns the bcrypt hash the demo strategy checks
// credentials against. The default hash is for the string "demo1234".
func (Security) GetDemoPasswordHash() string {
	return GetEnv("DEMO_PASSWORD_HASH", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
}

func (Security) GetMaxSessionAge() time.Duration {
	return durationEnv("SESSION_MAX_AGE_MINUTES", 30*time.Minute)
}

func (Security) GetRefreshTokenTTL() time.Duration {
	return durationEnv("REFRESH_TOKEN_TTL_MINUTES", 7*24*time.Hour)
}

// GetCookieSecure reports whether auth cookies carry the Secure attribute.
// Defaults to secure everywhere except DEV.
func (Security) GetCookieSecure() bool {
	secure, err := strconv.ParseBool(GetEnv("COOKIE_SECURE", ""))
	if err != nil {
		return EnvVars{}.GetEnv() != "DEV"
	}
	return secure
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	minutes, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil || minutes <= 0 {
		return defaultValue
	}
	return time.Duration(minutes) * time.Minute
}
