package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar          = "PORT"
	appNameVar          = "APP_NAME"
	sessionStorePathVar = "SESSION_STORE_PATH"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "ERP Portal Gateway")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetSessionStorePath returns the SQLite file backing the session store.
// Empty means sessions are kept in memory only.
func (EnvVars) GetSessionStorePath() string {
	return GetEnv(sessionStorePathVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
