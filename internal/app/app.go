package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/tagforge/internal/config"
	"github.com/vk/tagforge/internal/ctxlog"
	"github.com/vk/tagforge/internal/engine"
	"github.com/vk/tagforge/internal/registry"
	"github.com/vk/tagforge/internal/taglib"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	loader    config.Loader
	converter config.Converter
	engine    *engine.Engine
}

// NewApp is the constructor for the main application. Rendered output goes
// to outW and logs to logW. It returns a fully initialized App instance,
// including its own registry. The configured logger also becomes the
// process default. With no modules the core modules are registered.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, converter config.Converter, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	// Capability functions have no context; they log through the default.
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "capabilities", reg.Names())

	if err := reg.ValidateRegistry(ctx); err != nil {
		// A malformed capability set is a programmer error, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	// NewConfig has already validated the imports.
	imports, _ := cfg.Imports()

	provider := taglib.New(loader, reg,
		taglib.WithSearchPaths(cfg.TaglibPaths...),
		taglib.WithAutoescape(cfg.Autoescape),
	)
	opts := []engine.Option{
		engine.WithProvider(provider),
		engine.WithRegistry(reg),
		engine.WithAutoImports(imports...),
		engine.WithAutoescape(cfg.Autoescape),
	}
	if cfg.Atomic {
		opts = append(opts, engine.WithAtomicInstall())
	}

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		registry:  reg,
		loader:    loader,
		converter: converter,
		engine:    engine.New(loader, opts...),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
