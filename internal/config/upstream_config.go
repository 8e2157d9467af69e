package config

import "time"

// UpstreamConfig exposes the base URLs of the backend microservices the
// gateway proxies to, plus the client-side timeouts applied to calls.
type UpstreamConfig interface {
	GetAuthServiceURL() string
	GetNotificationsServiceURL() string
	GetLoginTimeout() time.Duration
	GetUpstreamTimeout() time.Duration
}

type Upstream struct{}

var _ UpstreamConfig = Upstream{}

func (Upstream) GetAuthServiceURL() string {
	return GetEnv("AUTH_SERVICE_URL", "http://localhost:9001")
}

func (Upstream) GetNotificationsServiceURL() string {
	return GetEnv("NOTIFICATIONS_SERVICE_URL", "http://localhost:9003")
}

// GetLoginTimeout is the client-side timeout on the upstream login call.
func (Upstream) GetLoginTimeout() time.Duration {
	return durationSecondsEnv("LOGIN_TIMEOUT_SECONDS", 15*time.Second)
}

func (Upstream) GetUpstreamTimeout() time.Duration {
	return durationSecondsEnv("UPSTREAM_TIMEOUT_SECONDS", 10*time.Second)
}

func durationSecondsEnv(envVar string, defaultValue time.Duration) time.Duration {
	seconds, err := time.ParseDuration(GetEnv(envVar, "") + "s")
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return seconds
}
