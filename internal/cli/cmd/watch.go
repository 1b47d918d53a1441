package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/application/usecase"
	"github.com/bnema/themesync/internal/cli/styles"
	"github.com/bnema/themesync/internal/infrastructure/config"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 2 * time.Second
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow theme changes until interrupted",
	Long: `Resolve the preference, then print one line per change: explicit
choices made by other instances, OS appearance changes while the theme
follows the system, and resets.

When analytics.metrics_addr is set, Prometheus metrics are served on
/metrics at that address while watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	log := a.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := a.StartEngine(ctx, true)
	if err != nil {
		return err
	}

	renderer := styles.NewStatusRenderer(a.Theme)
	out := cmd.OutOrStdout()
	emit := func(snap usecase.ThemeSnapshot) {
		if jsonOutput {
			_ = printSnapshot(out, snap)
			return
		}
		fmt.Fprintln(out, renderer.RenderChange(snap))
	}
	unsubscribe := followSnapshots(engine, emit)
	defer unsubscribe()

	a.Manager.OnConfigChange(func(cfg *config.Config) {
		a.ApplyConfig(cfg)
		log.Debug().Str("level", zerolog.GlobalLevel().String()).Msg("log level applied")
	})
	if err := a.Manager.Watch(*log); err != nil {
		log.Warn().Err(err).Msg("config watch disabled")
	}

	if addr := a.Config.Analytics.MetricsAddr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsHandler(a.Registry),
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		}
		go func() {
			log.Info().Str("addr", addr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	log.Debug().Msg("watch interrupted")
	return nil
}

type snapshotSource interface {
	Snapshot() usecase.ThemeSnapshot
	Subscribe(callback func(usecase.ThemeSnapshot)) port.Unsubscribe
}

// followSnapshots emits the current snapshot and every later one. It
// subscribes before reading the current value so no change is missed, and
// holds published snapshots back until the current one is out.
func followSnapshots(src snapshotSource, emit func(usecase.ThemeSnapshot)) port.Unsubscribe {
	var mu sync.Mutex
	mu.Lock()
	defer mu.Unlock()

	unsubscribe := src.Subscribe(func(snap usecase.ThemeSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		emit(snap)
	})
	emit(src.Snapshot())
	return unsubscribe
}

func metricsHandler(registry prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}
