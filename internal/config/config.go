package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	DBConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigin() string
	GetAllowedMethods() string
	GetAllowedHeaders() string
	GetPreflightMaxAge() time.Duration
}

type OAuthConfig interface {
	GetTokenLifetime() time.Duration
	GetCleanupRetention() time.Duration
}

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

type DBConfig interface {
	GetDBDriver() string
	GetDBDSN() string
}

type TelemetryConfig interface {
	GetMetricsEnabled() bool
	GetServiceVersion() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	DB
	Telemetry
}

// New loads an optional .env file from the working directory and returns a
// Config backed by environment variables.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
