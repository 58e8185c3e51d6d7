package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar           = "PORT"
	appNameVar           = "APP_NAME"
	envVar               = "ENV"
	logLevelVar          = "LOG_LEVEL"
	baseURLVar           = "BASE_URL"
	dbDriverVar          = "DB_DRIVER"
	dbDSNVar             = "DB_DSN"
	tokenLifetimeVar     = "TOKEN_LIFETIME_SECONDS"
	cleanupRetentionVar  = "CLEANUP_RETENTION_HOURS"
	rateLimitRPSVar      = "RATE_LIMIT_RPS"
	rateLimitBurstVar    = "RATE_LIMIT_BURST"
	metricsEnabledVar    = "METRICS_ENABLED"
	serviceVersionVar    = "SERVICE_VERSION"
	defaultTokenLifetime = 3600
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "MCP Token Proxy")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetBaseURL returns the public base URL, used as the issuer in the
// authorization server metadata document.
func (EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(GetEnv(baseURLVar, "http://localhost:8080"), "/")
}

type Cors struct{}

var _ CorsConfig = Cors{}

func (Cors) GetAllowedOrigin() string {
	return "*"
}

func (Cors) GetAllowedMethods() string {
	return "POST, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}

func (Cors) GetPreflightMaxAge() time.Duration {
	return 24 * time.Hour
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetTokenLifetime() time.Duration {
	seconds := GetEnvInt(tokenLifetimeVar, defaultTokenLifetime)
	if seconds <= 0 {
		seconds = defaultTokenLifetime
	}
	return time.Duration(seconds) * time.Second
}

// GetCleanupRetention is how long expired codes and tokens are kept before
// the cleanup command removes them.
func (OAuth) GetCleanupRetention() time.Duration {
	return time.Duration(GetEnvInt(cleanupRetentionVar, 24*7)) * time.Hour
}

type Security struct{}

var _ SecurityConfig = Security{}

func (s Security) GetEnableRateLimiting() bool {
	return s.GetRateLimitRPS() > 0
}

func (Security) GetRateLimitRPS() float64 {
	value, err := strconv.ParseFloat(GetEnv(rateLimitRPSVar, "0"), 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func (Security) GetRateLimitBurst() int {
	return GetEnvInt(rateLimitBurstVar, 20)
}

type DB struct{}

var _ DBConfig = DB{}

func (DB) GetDBDriver() string {
	return strings.ToLower(GetEnv(dbDriverVar, "sqlite"))
}

func (DB) GetDBDSN() string {
	return GetEnv(dbDSNVar, "./data/proxy.db")
}

type Telemetry struct{}

var _ TelemetryConfig = Telemetry{}

func (Telemetry) GetMetricsEnabled() bool {
	enabled, err := strconv.ParseBool(GetEnv(metricsEnabledVar, "true"))
	if err != nil {
		return true
	}
	return enabled
}

func (Telemetry) GetServiceVersion() string {
	return GetEnv(serviceVersionVar, "dev")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt falls back to defaultValue when the variable is unset or not an integer.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
