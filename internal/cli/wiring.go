package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/application/usecase"
	"github.com/bnema/themesync/internal/infrastructure/analytics"
	"github.com/bnema/themesync/internal/infrastructure/colorscheme"
	"github.com/bnema/themesync/internal/infrastructure/config"
	"github.com/bnema/themesync/internal/infrastructure/mirror"
	"github.com/bnema/themesync/internal/infrastructure/persistence/file"
	"github.com/bnema/themesync/internal/infrastructure/persistence/memory"
	"github.com/bnema/themesync/internal/infrastructure/persistence/redis"
	"github.com/bnema/themesync/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/themesync/internal/infrastructure/preference"
	"github.com/bnema/themesync/internal/logging"
)

type runtimeOptions struct {
	instanceID string
	registry   prometheus.Registerer
	live       bool
}

// engineRuntime is one fully wired engine with everything it owns.
type engineRuntime struct {
	engine   *usecase.ThemeEngine
	store    *preference.Store
	detector *colorscheme.SignalDetector
	syncing  bool
	closers  []func() error
}

func (rt *engineRuntime) own(closer func() error) {
	rt.closers = append(rt.closers, closer)
}

func (rt *engineRuntime) closeAll() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i]()
	}
	rt.closers = nil
}

func buildRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*engineRuntime, error) {
	rt := &engineRuntime{}
	ctx = logging.WithBackend(ctx, string(cfg.Storage.Backend))
	log := logging.FromContext(ctx)

	backend, channelFor, err := buildBackend(cfg, opts.instanceID, rt)
	if err != nil {
		rt.closeAll()
		return nil, err
	}

	rt.store = preference.NewStore(ctx, backend, preference.WithDegradeHook(func() {
		log.Warn().Msg("preference storage unavailable, keeping the preference in memory for this session")
	}))

	var channel port.SyncChannel
	if opts.live && cfg.Sync.Enabled && !rt.store.Degraded() {
		ch, err := channelFor(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("cross-instance sync disabled")
		} else {
			channel = ch
			rt.syncing = true
			rt.own(ch.Close)
		}
	}

	var detector port.SystemSignalDetector
	if cfg.Detection.Enabled {
		rt.detector = colorscheme.NewSignalDetector(ctx, colorscheme.Platform(),
			colorscheme.WithPollInterval(cfg.Detection.PollInterval.Std()),
			colorscheme.WithWatchers(cfg.Detection.Monitor),
		)
		rt.own(rt.detector.Close)
		if opts.live {
			rt.detector.Start(ctx)
		}
		detector = rt.detector
	}

	engineOpts := []usecase.EngineOption{
		usecase.WithReadTimeout(cfg.Storage.ReadTimeout.Std()),
		usecase.WithInstanceID(opts.instanceID),
	}

	sink, err := buildAnalytics(ctx, cfg.Analytics, opts.registry, rt)
	if err != nil {
		rt.closeAll()
		return nil, err
	}
	if sink != nil {
		engineOpts = append(engineOpts, usecase.WithAnalytics(sink))
	}

	if cfg.Mirror.Enabled {
		m, err := mirror.NewHTTPMirror(ctx, mirror.Config{
			Endpoint: cfg.Mirror.Endpoint,
			Token:    cfg.Mirror.Token,
			Timeout:  cfg.Mirror.Timeout.Std(),
		})
		if err != nil {
			rt.closeAll()
			return nil, fmt.Errorf("create mirror: %w", err)
		}
		rt.own(m.Close)
		engineOpts = append(engineOpts, usecase.WithMirror(m))
	}

	rt.engine = usecase.NewThemeEngine(rt.store, detector, channel, engineOpts...)

	log.Debug().
		Str("store", rt.store.Backend()).
		Bool("sync", rt.syncing).
		Bool("detection", detector != nil).
		Msg("engine wired")
	return rt, nil
}

// buildBackend returns the configured backend and a constructor for its
// sync channel.
func buildBackend(
	cfg *config.Config,
	instanceID string,
	rt *engineRuntime,
) (port.PreferenceBackend, func(context.Context) (port.SyncChannel, error), error) {
	s := cfg.Storage
	switch s.Backend {
	case config.BackendFile:
		b := file.NewBackend(s.Path)
		return b, func(ctx context.Context) (port.SyncChannel, error) {
			return file.NewChannel(ctx, b, cfg.Sync.Debounce.Std())
		}, nil

	case config.BackendSQLite:
		db := sqlite.NewLazyDB(s.Path)
		rt.own(db.Close)
		b := sqlite.NewBackend(db, s.Key)
		return b, func(ctx context.Context) (port.SyncChannel, error) {
			return sqlite.NewChannel(ctx, b, cfg.Sync.PollInterval.Std())
		}, nil

	case config.BackendRedis:
		b := redis.NewBackend(redis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
			Prefix:   s.Redis.Prefix,
			Key:      s.Key,
			Channel:  s.Redis.Channel,
			Origin:   instanceID,
		})
		rt.own(b.Close)
		return b, func(ctx context.Context) (port.SyncChannel, error) {
			return redis.NewChannel(ctx, b)
		}, nil

	case config.BackendMemory:
		b := memory.NewBackend(nil)
		return b, func(ctx context.Context) (port.SyncChannel, error) {
			return memory.NewChannel(ctx, b), nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// buildAnalytics returns nil when no sink is enabled.
func buildAnalytics(
	ctx context.Context,
	cfg config.AnalyticsConfig,
	registry prometheus.Registerer,
	rt *engineRuntime,
) (port.AnalyticsSink, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var sinks []port.AnalyticsSink
	if cfg.Log {
		sinks = append(sinks, analytics.NewLogSink(zerolog.InfoLevel))
	}
	if cfg.Prometheus && registry != nil {
		prom, err := analytics.NewPrometheusSink(registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		sinks = append(sinks, prom)
	}
	if cfg.Endpoint != "" {
		httpSink, err := analytics.NewHTTPSink(ctx, analytics.HTTPSinkConfig{
			Endpoint:      cfg.Endpoint,
			QueueSize:     cfg.QueueSize,
			RatePerSecond: cfg.RatePerSecond,
			Timeout:       cfg.Timeout.Std(),
		})
		if err != nil {
			return nil, fmt.Errorf("create analytics sink: %w", err)
		}
		rt.own(httpSink.Close)
		sinks = append(sinks, httpSink)
	}

	multi := analytics.Multi(sinks...)
	if multi.Len() == 0 {
		return nil, nil
	}
	return multi, nil
}
