package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. SLACK_CLI_TOKEN.
const EnvPrefix = "SLACK_CLI"

// envOverrides holds values read from SLACK_CLI_* environment variables.
// Unset variables leave the corresponding config value untouched.
type envOverrides struct {
	ConfigDir         string        `envconfig:"CONFIG_DIR"`
	Token             string        `envconfig:"TOKEN"`
	Team              string        `envconfig:"TEAM"`
	CredentialBackend string        `envconfig:"CREDENTIAL_BACKEND"`
	Timeout           time.Duration `envconfig:"TIMEOUT"`
	RateLimit         float64       `envconfig:"RATE_LIMIT"`
	LogLevel          string        `envconfig:"LOG_LEVEL"`
	APIURL            string        `envconfig:"API_URL"`
}

// Load reads config.yml from the config directory and applies environment overrides.
// Returns defaults (not an error) if the file doesn't exist.
func Load() (*Config, error) {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := Defaults()
	if env.ConfigDir != "" {
		cfg.Dir = ExpandPath(env.ConfigDir)
	}

	data, err := os.ReadFile(cfg.ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	env.apply(cfg)

	if err := ValidateBackend(cfg.CredentialBackend); err != nil {
		return nil, err
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("invalid rate_limit: %v (must be positive)", cfg.RateLimit)
	}

	return cfg, nil
}

func (e envOverrides) apply(cfg *Config) {
	if e.Token != "" {
		cfg.Token = e.Token
	}
	if e.Team != "" {
		cfg.Team = e.Team
	}
	if e.CredentialBackend != "" {
		cfg.CredentialBackend = e.CredentialBackend
	}
	if e.Timeout != 0 {
		cfg.Timeout = e.Timeout
	}
	if e.RateLimit != 0 {
		cfg.RateLimit = e.RateLimit
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.APIURL != "" {
		cfg.APIURL = e.APIURL
	}
}
