// Package config provides configuration management for the Aegis console
// server and the aegis-admin CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigDir returns the default config directory (~/.aegis).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".aegis"), nil
}

// DefaultConfigPath returns the default config file path (~/.aegis/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// CachedUser is the signed-in user as last returned by the backend.
type CachedUser struct {
	ID        string `yaml:"id"`
	Email     string `yaml:"email"`
	Name      string `yaml:"name,omitempty"`
	Role      string `yaml:"role,omitempty"`
	CompanyID string `yaml:"company_id,omitempty"`
}

// ImagesConfig locates the bucket holding vehicle model images.
type ImagesConfig struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`
}

// CLIConfig holds the aegis-admin configuration and session.
type CLIConfig struct {
	BackendURL string       `yaml:"backend_url,omitempty"`
	Token      string       `yaml:"token,omitempty"`
	User       *CachedUser  `yaml:"user,omitempty"`
	Language   string       `yaml:"language,omitempty"`
	Proxy      *ProxyConfig `yaml:"proxy,omitempty"`
	Images     ImagesConfig `yaml:"images,omitempty"`
}

// Validate checks that the configuration can reach a backend.
func (c *CLIConfig) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend_url is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url %q is not an absolute URL", c.BackendURL)
	}
	return nil
}

// IsLoggedIn returns true if a session token is stored.
func (c *CLIConfig) IsLoggedIn() bool {
	return c.Token != ""
}

// ClearSession forgets the token and cached user.
func (c *CLIConfig) ClearSession() {
	c.Token = ""
	c.User = nil
}

// GetProxyConfig returns the proxy settings, or nil.
func (c *CLIConfig) GetProxyConfig() *ProxyConfig {
	if c.Proxy == nil || !c.Proxy.HasProxy() {
		return nil
	}
	return c.Proxy
}

// Load reads the configuration from the given path.
// If the file does not exist, an empty config is returned.
func Load(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &CLIConfig{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads the configuration from the default path.
func LoadDefault() (*CLIConfig, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the configuration to the given path, creating directories as needed.
func (c *CLIConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file holds a bearer token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
