// Package http_client forwards registration tokens to the application
// server over HTTP.
package http_client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/push"
	"resty.dev/v3"
)

// RegistrationPath is the upsert endpoint, relative to the base URL.
const RegistrationPath = "/installations/{installation_id}"

// Config defines how to reach the application server.
type Config struct {
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	MaxWait    time.Duration
	UserAgent  string
}

// Client is the application server client. It implements push.TokenSink.
type Client struct {
	rc *resty.Client
}

var _ push.TokenSink = (*Client)(nil)

type registrationBody struct {
	Token       string    `json:"token"`
	Platform    string    `json:"platform,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *errorBody) String() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// New creates a Client for cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("application server base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Second
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTransport(newTransport()).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.MaxWait).
		SetLogger(&slogLogger{logger: ctxlog.FromContext(ctx).With("component", "app_server_client")}).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}
	return &Client{rc: rc}, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Register upserts reg on the application server. Client errors other than
// 429 are permanent; server errors, 429 and transport failures are returned
// as-is after the configured retries.
func (c *Client) Register(ctx context.Context, reg push.Registration) error {
	logger := ctxlog.FromContext(ctx).With("installation_id", reg.InstallationID)
	if reg.InstallationID == "" {
		return push.Permanent(fmt.Errorf("registration has no installation id"))
	}

	var apiErr errorBody
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("installation_id", reg.InstallationID).
		SetBody(registrationBody{Token: reg.Token, Platform: reg.Platform, RefreshedAt: reg.RefreshedAt}).
		SetError(&apiErr).
		Put(RegistrationPath)
	if err != nil {
		return fmt.Errorf("failed to send registration: %w", err)
	}

	status := resp.StatusCode()
	logger.Debug("Received app server response.", "status", status)
	if resp.IsSuccess() {
		return nil
	}

	err = fmt.Errorf("app server answered %d: %s", status, describe(&apiErr, resp))
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return push.Permanent(err)
	}
	return err
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}

func describe(apiErr *errorBody, resp *resty.Response) string {
	if msg := apiErr.String(); msg != "" {
		return msg
	}
	if body := resp.String(); body != "" {
		return body
	}
	return http.StatusText(resp.StatusCode())
}

// slogLogger routes resty's diagnostics into the structured logger.
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *slogLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
