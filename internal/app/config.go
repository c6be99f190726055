package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // optional .hcl function manifests

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	Push PushConfig
}

// PushConfig configures the push client used by `listen` and
// `register-token`.
type PushConfig struct {
	GatewayURL         string
	Namespace          string
	GatewayToken       string
	InsecureSkipVerify bool
	AckTimeout         time.Duration

	AppServerURL   string
	APIKey         string
	HTTPTimeout    time.Duration
	HTTPRetryCount int

	// InstallationID identifies this installation to the app server. A
	// random UUID is generated when empty.
	InstallationID string
	Platform       string

	ResyncSchedule   string
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck-port out of range: %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}

// Validate checks the fields the push commands need.
func (p PushConfig) Validate() error {
	var missing []string
	if p.GatewayURL == "" {
		missing = append(missing, "gateway-url")
	}
	if p.AppServerURL == "" {
		missing = append(missing, "app-server-url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required push settings: %s", strings.Join(missing, ", "))
	}
	if p.RetryMaxAttempts < 0 {
		return fmt.Errorf("retry-max-attempts must not be negative, got %d", p.RetryMaxAttempts)
	}
	return nil
}
