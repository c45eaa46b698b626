// Package config handles slack-cli configuration and the on-disk layout of its config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents configuration stored in ~/.config/slack-cli/config.yml,
// with environment overrides applied on top.
type Config struct {
	CredentialBackend string        `yaml:"credential_backend,omitempty"` // "file" or "keyring"
	Timeout           time.Duration `yaml:"timeout,omitempty"`            // HTTP timeout for Slack API calls
	RateLimit         float64       `yaml:"rate_limit,omitempty"`         // Slack API requests per second
	LogLevel          string        `yaml:"log_level,omitempty"`
	APIURL            string        `yaml:"api_url,omitempty"` // Slack Web API base URL

	// Token and Team come from the environment only; they are never written to config.yml.
	Token string `yaml:"-"`
	Team  string `yaml:"-"`

	// Dir is the config directory the file was loaded from.
	Dir string `yaml:"-"`
}

const (
	// AppDir is the directory name under XDG_CONFIG_HOME.
	AppDir          = "slack-cli"
	ConfigFile      = "config.yml"
	CacheFile       = "id-cache.json"
	CredentialsFile = "credentials.yml"

	BackendFile    = "file"
	BackendKeyring = "keyring"

	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2.0
	DefaultLogLevel  = "info"
	DefaultAPIURL    = "https://slack.com/api/"
)

// ValidBackends lists the supported credential_backend values.
var ValidBackends = []string{BackendFile, BackendKeyring}

// Defaults returns a Config populated with default values and the default directory.
func Defaults() *Config {
	return &Config{
		CredentialBackend: BackendFile,
		Timeout:           DefaultTimeout,
		RateLimit:         DefaultRateLimit,
		LogLevel:          DefaultLogLevel,
		APIURL:            DefaultAPIURL,
		Dir:               DefaultDir(),
	}
}

// DefaultDir returns the slack-cli config directory.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/slack-cli.
func DefaultDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir)
}

// ConfigPath returns the path to config.yml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// CachePath returns the path to the source id cache.
func (c *Config) CachePath() string {
	return filepath.Join(c.Dir, CacheFile)
}

// CredentialsPath returns the path to credentials.yml.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Dir, CredentialsFile)
}

// ValidateBackend checks that the credential backend value is valid.
func ValidateBackend(backend string) error {
	for _, valid := range ValidBackends {
		if backend == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid credential_backend: %s (valid: %v)", backend, ValidBackends)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// WriteFileAtomic writes data to a temp file in the target directory and renames it
// into place, creating the directory with owner-only permissions if needed.
// The resulting file has mode perm regardless of umask.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
