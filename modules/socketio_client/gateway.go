// Package socketio_client connects to the push gateway over socket.io. It
// delivers push messages to a handler, fetches the installation's
// registration token and reports token refresh events.
package socketio_client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/push"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names exchanged with the gateway.
const (
	MessageEvent      = "message"
	TokenRefreshEvent = "token_refresh"
	TokenEvent        = "token"
)

// ErrNotConnected is returned by FetchToken while the socket is down. It is
// transient: the manager reconnects on its own.
var ErrNotConnected = errors.New("gateway is not connected")

// Config defines how to reach the gateway.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// AuthToken is sent in the socket.io handshake when set.
	AuthToken      string
	InstallationID string
	ConnectTimeout time.Duration
	AckTimeout     time.Duration
}

// Handlers are the callbacks the client invokes on gateway events. Either
// may be nil.
type Handlers struct {
	OnMessage      push.Handler
	OnTokenRefresh func()
}

// Client is a connected gateway session. It implements push.TokenSource.
type Client struct {
	io             *socket.Socket
	ctx            context.Context
	logger         *slog.Logger
	installationID string
	ackTimeout     time.Duration
}

var _ push.TokenSource = (*Client)(nil)

// Dial connects to the gateway and blocks until the connection is
// established, ctx is done or the connect timeout passes. Handlers receive
// a context derived from ctx that outlives the dial and carries ctx's logger
// unchanged. An empty Namespace means the root namespace "/".
func Dial(ctx context.Context, cfg Config, handlers Handlers) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "gateway", "url", cfg.URL)
	logger.Info("Connecting to push gateway...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("gateway URL %q must include scheme and host", cfg.URL)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 15 * time.Second
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 10 * time.Second
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	if cfg.AuthToken != "" || cfg.InstallationID != "" {
		auth := map[string]any{"installation_id": cfg.InstallationID}
		if cfg.AuthToken != "" {
			auth["token"] = cfg.AuthToken
		}
		opts.SetAuth(auth)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	c := &Client{
		io:             io,
		ctx:            context.WithoutCancel(ctx),
		logger:         logger,
		installationID: cfg.InstallationID,
		ackTimeout:     cfg.AckTimeout,
	}

	io.On(types.EventName(MessageEvent), func(args ...any) {
		msg, err := decodeMessage(args)
		if err != nil {
			logger.Warn("Dropping malformed push message.", "error", err)
			return
		}
		if handlers.OnMessage != nil {
			handlers.OnMessage(c.ctx, msg)
		}
	})
	io.On(types.EventName(TokenRefreshEvent), func(...any) {
		logger.Info("Gateway signalled a token refresh.")
		if handlers.OnTokenRefresh != nil {
			handlers.OnTokenRefresh()
		}
	})
	io.On(types.EventName("disconnect"), func(reason ...any) {
		logger.Warn("Disconnected from push gateway.", "reason", fmt.Sprint(reason...))
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, ok := firstError(errs)
		if !ok {
			err = errors.New("connect_error")
		}
		logger.Debug("EVENT HANDLER: 'connect_error' event fired", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(cfg.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", cfg.ConnectTimeout)
	}
}

type tokenResult struct {
	token string
	err   error
}

// FetchToken asks the gateway for the installation's current registration
// token. A gateway refusal flagged as permanent is wrapped with
// push.ErrPermanent; timeouts and disconnects are transient.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	if !c.io.Connected() {
		return "", ErrNotConnected
	}

	done := make(chan tokenResult, 1)
	req := map[string]any{"installation_id": c.installationID}
	c.io.Timeout(c.ackTimeout).EmitWithAck(TokenEvent, req)(func(args []any, err error) {
		if err != nil {
			done <- tokenResult{err: fmt.Errorf("token request failed: %w", err)}
			return
		}
		token, err := parseTokenAck(args)
		done <- tokenResult{token: token, err: err}
	})

	select {
	case res := <-done:
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ID returns the socket.io session id.
func (c *Client) ID() string {
	return c.io.Id()
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	c.logger.Info("Disconnecting from push gateway.", "sid", c.ID())
	c.io.Disconnect()
	return nil
}

func firstError(args []any) (error, bool) {
	if len(args) == 0 {
		return nil, false
	}
	err, ok := args[0].(error)
	return err, ok
}
