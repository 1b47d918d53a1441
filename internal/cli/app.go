// Package cli wires configuration, adapters and the theme engine for the
// themesync commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/bnema/themesync/internal/application/usecase"
	"github.com/bnema/themesync/internal/cli/styles"
	"github.com/bnema/themesync/internal/domain/build"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/infrastructure/colorscheme"
	"github.com/bnema/themesync/internal/infrastructure/config"
	"github.com/bnema/themesync/internal/infrastructure/preference"
	"github.com/bnema/themesync/internal/logging"
)

// Options selects how the App is built.
type Options struct {
	// ConfigFile overrides the XDG config file location.
	ConfigFile string
	// LogLevel is bound to logging.level and wins over the file and the
	// environment once the user sets it.
	LogLevel *pflag.Flag
}

// App holds CLI dependencies.
type App struct {
	Config     *config.Config
	Manager    *config.Manager
	Theme      *styles.Theme
	BuildInfo  build.Info
	InstanceID string
	Registry   *prometheus.Registry

	// Set by StartEngine.
	Engine   *usecase.ThemeEngine
	Store    *preference.Store
	Detector *colorscheme.SignalDetector
	// Live reports that another instance's writes are being observed.
	Live bool

	ctx         context.Context
	closers     []func() error
	logCleanup  func()
	levelPinned bool
}

// NewApp loads the configuration and sets up logging. The engine is built
// separately by StartEngine so that commands which never touch the
// preference stay cheap.
func NewApp(opts Options) (*App, error) {
	mgr, err := config.NewManager(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("create config manager: %w", err)
	}
	levelPinned := opts.LogLevel != nil && opts.LogLevel.Changed
	if opts.LogLevel != nil {
		if err := mgr.BindFlag("logging.level", opts.LogLevel); err != nil {
			return nil, err
		}
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	// The logger itself passes everything; the global level filters so that
	// a config reload can change verbosity in both directions.
	logCfg := logging.DefaultConfig()
	logCfg.Level = zerolog.TraceLevel
	zerolog.SetGlobalLevel(logging.ParseLevel(cfg.Logging.Level))
	logCfg.Format = cfg.Logging.Format
	logCfg.TimeFormat = "15:04:05"

	logger, logCleanup, err := logging.NewWithFile(logCfg, cfg.Logging.File)
	if err != nil {
		// The console logger still works; only the file is missing.
		logger.Warn().Err(err).Str("file", cfg.Logging.File).Msg("file logging disabled")
	}

	instanceID := uuid.NewString()
	ctx := logging.WithContext(context.Background(), logger)
	ctx = logging.WithInstanceID(ctx, instanceID)

	return &App{
		Config:      cfg,
		Manager:     mgr,
		Theme:       styles.NewTheme(entity.ThemeUnknown),
		InstanceID:  instanceID,
		Registry:    prometheus.NewRegistry(),
		ctx:         ctx,
		logCleanup:  logCleanup,
		levelPinned: levelPinned,
	}, nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return logging.FromContext(a.ctx)
}

// ApplyConfig swaps in a reloaded configuration. Only the log level takes
// effect on a running engine, and not when --log-level pinned it.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	if a.levelPinned {
		return
	}
	zerolog.SetGlobalLevel(logging.ParseLevel(cfg.Logging.Level))
}

// StartEngine builds the adapters selected by the configuration and starts
// the engine. A live engine also observes the OS signal and other instances.
func (a *App) StartEngine(ctx context.Context, live bool) (*usecase.ThemeEngine, error) {
	if a.Engine != nil {
		return a.Engine, nil
	}

	rt, err := buildRuntime(a.ctx, a.Config, runtimeOptions{
		instanceID: a.InstanceID,
		registry:   a.Registry,
		live:       live,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rt.closers...)

	if err := startAndResolve(a.ctx, ctx, rt.engine); err != nil {
		return nil, err
	}

	a.Engine = rt.engine
	a.Store = rt.store
	a.Detector = rt.detector
	a.Live = rt.syncing
	a.Theme = styles.NewTheme(rt.engine.Theme())
	return a.Engine, nil
}

type engineLifecycle interface {
	Start(ctx context.Context) error
	Resolve(ctx context.Context) error
	Close() error
}

// startAndResolve starts the engine on appCtx and waits for the first
// resolution under ctx. The engine is closed when either step fails.
func startAndResolve(appCtx, ctx context.Context, engine engineLifecycle) error {
	if err := engine.Start(appCtx); err != nil {
		_ = engine.Close()
		return err
	}
	if err := engine.Resolve(ctx); err != nil {
		_ = engine.Close()
		return fmt.Errorf("resolve theme: %w", err)
	}
	return nil
}

// Close releases all resources in reverse creation order.
func (a *App) Close() error {
	var errs []error
	if a.Engine != nil {
		errs = append(errs, a.Engine.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.logCleanup != nil {
		a.logCleanup()
		a.logCleanup = nil
	}
	return errors.Join(errs...)
}
