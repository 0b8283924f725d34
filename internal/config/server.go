package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// minSessionSecret is the shortest SESSION_SECRET accepted in production.
const minSessionSecret = 32

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment       Environment
	Port              int
	LogLevel          string
	BackendURL        string
	BackendTimeout    time.Duration
	SessionSecret     string
	SessionMaxAge     int  // session lifetime in seconds (default: 86400)
	SecureCookies     bool // defaults to true in production
	CORSOrigins       []string
	RateLimitRequests int64
	RateLimitPeriod   time.Duration
	RedisURL          string // rate limiter store; in-memory when empty
	Proxy             ProxyConfig
}

// LoadServerConfig reads server configuration from environment variables.
func LoadServerConfig() ServerConfig {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	sessionMaxAge := getEnvInt("SESSION_MAX_AGE", 86400)
	if sessionMaxAge < 0 {
		sessionMaxAge = 86400
	}

	rateLimit := getEnvInt("RATE_LIMIT_REQUESTS", 100)
	if rateLimit <= 0 {
		rateLimit = 100
	}

	return ServerConfig{
		Environment:       env,
		Port:              getEnvInt("PORT", 8080),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
		BackendURL:        strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		BackendTimeout:    getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionMaxAge:     sessionMaxAge,
		SecureCookies:     getEnvBool("SECURE_COOKIES", env == EnvProduction),
		CORSOrigins:       getEnvList("CORS_ORIGINS"),
		RateLimitRequests: int64(rateLimit),
		RateLimitPeriod:   getEnvDuration("RATE_LIMIT_PERIOD", time.Minute),
		RedisURL:          os.Getenv("REDIS_URL"),
		Proxy: ProxyConfig{
			HTTPProxy:   os.Getenv("HTTP_PROXY"),
			HTTPSProxy:  os.Getenv("HTTPS_PROXY"),
			NoProxy:     os.Getenv("NO_PROXY"),
			SOCKS5Proxy: os.Getenv("SOCKS5_PROXY"),
		},
	}
}

// IsProduction reports whether the server runs in production.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks settings the server cannot start without.
func (c ServerConfig) Validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL %q is not an absolute URL", c.BackendURL)
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.IsProduction() && len(c.SessionSecret) < minSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes in production", minSessionSecret)
	}
	if c.IsProduction() && len(c.CORSOrigins) == 0 {
		return errors.New("CORS_ORIGINS is required in production")
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getEnvList reads a comma-separated list, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration reads a Go duration string, returning the default if unset or invalid.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
