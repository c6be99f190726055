package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/push"
	"github.com/vk/leafkit/modules/http_client"
	"github.com/vk/leafkit/modules/socketio_client"
	"golang.org/x/sync/errgroup"
)

// pushClient bundles the collaborators of one push session.
type pushClient struct {
	gateway   *socketio_client.Client
	sink      *http_client.Client
	refresher *push.Refresher
}

func (p *pushClient) close() {
	if p.refresher != nil {
		_ = p.refresher.Close()
	}
	if p.gateway != nil {
		_ = p.gateway.Close()
	}
	if p.sink != nil {
		_ = p.sink.Close()
	}
}

// InstallationID returns the configured id or generates one for this process.
func (a *App) InstallationID() string {
	if a.config.Push.InstallationID == "" {
		a.config.Push.InstallationID = uuid.NewString()
		a.logger.Info("Generated installation id.", "installation_id", a.config.Push.InstallationID)
	}
	return a.config.Push.InstallationID
}

// connectPush dials the gateway and prepares the registration pipeline.
// Gateway token refresh events trigger the refresher; schedule enables the
// periodic resync.
func (a *App) connectPush(ctx context.Context, schedule string) (*pushClient, error) {
	cfg := a.config.Push
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id := a.InstallationID()

	sink, err := http_client.New(ctx, http_client.Config{
		BaseURL:    cfg.AppServerURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.HTTPTimeout,
		RetryCount: cfg.HTTPRetryCount,
		UserAgent:  "leafkit/" + Version,
	})
	if err != nil {
		return nil, err
	}
	pc := &pushClient{sink: sink}

	// The gateway is assigned before the refresher starts, so the source
	// never sees it nil.
	source := push.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return pc.gateway.FetchToken(ctx)
	})
	task := push.NewRegistrationTask(source, sink, id, cfg.Platform)
	pc.refresher, err = push.NewRefresher(task, push.RefresherOptions{
		Retry: push.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		ResyncSchedule: schedule,
		OnFailure: func(ctx context.Context, res push.Result) {
			ctxlog.FromContext(ctx).Error("Installation is not registered with the app server.", "attempts", res.Attempts, "error", res.Err)
		},
	})
	if err != nil {
		pc.close()
		return nil, err
	}

	pc.gateway, err = socketio_client.Dial(ctx, socketio_client.Config{
		URL:                cfg.GatewayURL,
		Namespace:          cfg.Namespace,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		AuthToken:          cfg.GatewayToken,
		InstallationID:     id,
		AckTimeout:         cfg.AckTimeout,
	}, socketio_client.Handlers{
		OnMessage:      a.registry.MessageHandler(),
		OnTokenRefresh: pc.refresher.Trigger,
	})
	if err != nil {
		pc.close()
		return nil, fmt.Errorf("failed to connect to push gateway: %w", err)
	}
	return pc, nil
}

// Listen connects to the push gateway, registers the installation's token
// and then serves messages and token refreshes until ctx is cancelled.
func (a *App) Listen(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Listen method started.")

	pc, err := a.connectPush(ctx, a.config.Push.ResyncSchedule)
	if err != nil {
		return err
	}
	defer pc.close()

	a.logger.Info("Message handlers registered:", "count", len(a.registry.MessageHandlerNames()), "keys", a.registry.MessageHandlerNames())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.serveHealthcheck(gctx)
	})
	g.Go(func() error {
		pc.refresher.Start(gctx)
		pc.refresher.Trigger()
		a.logger.Info("🚀 Listening for push messages...", "installation_id", a.config.Push.InstallationID)
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	a.logger.Info("🏁 Push client stopped.")
	return err
}

// RegisterToken performs one registration, with retries, and returns its
// outcome.
func (a *App) RegisterToken(ctx context.Context) (push.Result, error) {
	ctx = a.withLogger(ctx)

	pc, err := a.connectPush(ctx, "")
	if err != nil {
		return push.Result{}, err
	}
	defer pc.close()

	res := pc.refresher.RunOnce(ctx)
	if !res.OK() {
		return res, fmt.Errorf("token registration failed after %d attempt(s): %w", res.Attempts, res.Err)
	}
	return res, nil
}
