package config

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	UpstreamConfig
	SsoConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetSessionStorePath() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Upstream
	Sso
}

func New() Config {
	return mainConfig{}
}
