// Package config loads meetlink's process configuration from the environment.
//
// Values come from the process environment, optionally seeded from a .env
// file. Variables already present in the environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvFile is the dotenv file read when present.
const DefaultEnvFile = ".env"

// Config is the full set of environment-driven settings.
type Config struct {
	Port int `envconfig:"PORT" default:"3001"`

	// CredentialStrategy selects "file" or "static"; empty means auto.
	CredentialStrategy string `envconfig:"CREDENTIAL_STRATEGY"`

	// GoogleCredentials is the client credentials JSON (installed or web).
	GoogleCredentials string `envconfig:"GOOGLE_CREDENTIALS"`

	// GoogleToken is the static token JSON.
	GoogleToken string `envconfig:"GOOGLE_TOKEN"`

	CredentialsPath string `envconfig:"GOOGLE_CREDENTIALS_PATH" default:"credentials.json"`
	TokenPath       string `envconfig:"GOOGLE_TOKEN_PATH" default:"token.json"`
	InteractiveAuth bool   `envconfig:"INTERACTIVE_AUTH" default:"true"`
	CallbackPort    int    `envconfig:"OAUTH_CALLBACK_PORT" default:"0"`

	// AuthTimeout bounds one interactive authorization.
	AuthTimeout time.Duration `envconfig:"AUTH_TIMEOUT" default:"5m"`

	RootRedirect   bool          `envconfig:"ROOT_REDIRECT" default:"false"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MeetEndpoint   string        `envconfig:"MEET_ENDPOINT"`

	// RateLimit is create requests per second per client; 0 disables.
	RateLimit      float64 `envconfig:"RATE_LIMIT" default:"0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"5"`
	TrustProxy     bool    `envconfig:"TRUST_PROXY" default:"false"`

	MCPEnabled bool `envconfig:"MCP_ENABLED" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads envFile (if it exists) into the environment and then processes
// the environment into a Config. An empty envFile skips the dotenv step.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	if c.CallbackPort < 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("invalid OAUTH_CALLBACK_PORT %d: must be between 0 and 65535", c.CallbackPort)
	}
	if c.AuthTimeout <= 0 {
		return fmt.Errorf("invalid AUTH_TIMEOUT %s: must be positive", c.AuthTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid RATE_LIMIT %g: must not be negative", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST %d: must be at least 1", c.RateLimitBurst)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT %s: must be positive", c.RequestTimeout)
	}
	return nil
}

// Addr returns the listen address for the HTTP front door.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
