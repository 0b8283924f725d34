package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadServerConfig_DefaultEnvironment(t *testing.T) {
	os.Unsetenv("ENV")
	cfg := LoadServerConfig()
	if cfg.Environment != EnvDevelopment {
		t.Errorf("expected %q, got %q", EnvDevelopment, cfg.Environment)
	}
	if cfg.SecureCookies {
		t.Error("expected insecure cookies outside production")
	}
}

func TestLoadServerConfig_InvalidEnvironment(t *testing.T) {
	t.Setenv("ENV", "invalid")
	cfg := LoadServerConfig()
	if cfg.Environment != EnvDevelopment {
		t.Errorf("expected %q for invalid ENV, got %q", EnvDevelopment, cfg.Environment)
	}
}

func TestLoadServerConfig_ValidEnvironments(t *testing.T) {
	tests := []struct {
		env  string
		want Environment
	}{
		{"development", EnvDevelopment},
		{"staging", EnvStaging},
		{"production", EnvProduction},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ENV", tt.env)
			cfg := LoadServerConfig()
			if cfg.Environment != tt.want {
				t.Errorf("expected %q, got %q", tt.want, cfg.Environment)
			}
		})
	}
}

func TestLoadServerConfig_Values(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, ,https://staging.example.com")
	t.Setenv("RATE_LIMIT_REQUESTS", "-5")
	t.Setenv("RATE_LIMIT_PERIOD", "30s")
	t.Setenv("BACKEND_TIMEOUT", "not-a-duration")
	t.Setenv("HTTPS_PROXY", "http://proxy:3128")

	cfg := LoadServerConfig()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, []string{"https://admin.example.com", "https://staging.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, int64(100), cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitPeriod)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.True(t, cfg.SecureCookies)
	assert.True(t, cfg.Proxy.HasProxy())
}

func TestServerConfig_Validate(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr bool
	}{
		{"missing backend", ServerConfig{SessionSecret: secret}, true},
		{"relative backend", ServerConfig{BackendURL: "/api", SessionSecret: secret}, true},
		{"missing secret", ServerConfig{BackendURL: "https://api.example.com"}, true},
		{"short secret in development", ServerConfig{Environment: EnvDevelopment, BackendURL: "http://localhost:5000", SessionSecret: "dev"}, false},
		{"short secret in production", ServerConfig{Environment: EnvProduction, BackendURL: "https://api.example.com", SessionSecret: "dev"}, true},
		{"production without origins", ServerConfig{Environment: EnvProduction, BackendURL: "https://api.example.com", SessionSecret: secret}, true},
		{"valid production", ServerConfig{Environment: EnvProduction, BackendURL: "https://api.example.com", SessionSecret: secret, CORSOrigins: []string{"https://admin.example.com"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
