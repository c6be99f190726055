package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/exprhost"
	"github.com/vk/leafkit/internal/manifest"
	"github.com/vk/leafkit/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	registry   *registry.Registry
	config     *Config
	httpServer *http.Server
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup inconsistencies (a broken manifest, a function registered twice or
// a manifest that disagrees with the Go code) are programmer errors and panic.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if cfg.ManifestPath != "" {
		defs, err := manifest.LoadRecursively(ctx, cfg.ManifestPath)
		if err != nil {
			panic(fmt.Errorf("failed to load function manifests: %w", err))
		}
		reg.PopulateDefinitions(defs)
		logger.Debug("Registry definitions populated from manifests.", "count", len(defs))
	}

	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		registry: reg,
		config:   cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Context returns the base context carrying the app's logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Evaluator returns an expression evaluator over the function catalog.
func (a *App) Evaluator() *exprhost.Evaluator {
	return exprhost.NewEvaluator(a.registry.Functions(), a.config.WorkerCount)
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
