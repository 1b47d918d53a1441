package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/infrastructure/config"
)

func testConfig(t *testing.T, backend config.BackendKind) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = backend
	cfg.Detection.Enabled = false
	switch backend {
	case config.BackendFile:
		cfg.Storage.Path = filepath.Join(t.TempDir(), "preference.json")
	case config.BackendSQLite:
		cfg.Storage.Path = filepath.Join(t.TempDir(), "themesync.sqlite")
	}
	return cfg
}

func TestBuildRuntime_Backends(t *testing.T) {
	for _, backend := range []config.BackendKind{config.BackendFile, config.BackendSQLite, config.BackendMemory} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			rt, err := buildRuntime(ctx, testConfig(t, backend), runtimeOptions{instanceID: "test", live: true})
			require.NoError(t, err)
			t.Cleanup(func() {
				_ = rt.engine.Close()
				rt.closeAll()
			})

			require.NoError(t, rt.engine.Resolve(ctx))
			require.NoError(t, rt.engine.SetTheme(ctx, entity.ThemeDark))

			assert.Equal(t, string(backend), rt.store.Backend())
			assert.False(t, rt.store.Degraded())
			assert.True(t, rt.syncing)
			pref, ok := rt.store.Read(ctx)
			require.True(t, ok)
			assert.Equal(t, entity.ModeDark, pref.Mode)
		})
	}
}

func TestBuildRuntime_OneShotSkipsSync(t *testing.T) {
	rt, err := buildRuntime(context.Background(), testConfig(t, config.BackendMemory), runtimeOptions{})
	require.NoError(t, err)
	t.Cleanup(rt.closeAll)

	assert.False(t, rt.syncing)
	assert.Nil(t, rt.detector)
}

func TestBuildRuntime_UnreachableRedisDegrades(t *testing.T) {
	cfg := testConfig(t, config.BackendRedis)
	cfg.Storage.Redis.Addr = "127.0.0.1:1"
	ctx := context.Background()

	rt, err := buildRuntime(ctx, cfg, runtimeOptions{live: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = rt.engine.Close()
		rt.closeAll()
	})

	assert.True(t, rt.store.Degraded())
	assert.False(t, rt.syncing)
	require.NoError(t, rt.engine.Resolve(ctx))
	assert.Equal(t, entity.ThemeLight, rt.engine.Theme())
	assert.True(t, rt.engine.Snapshot().StoreDegraded)
}

func TestBuildRuntime_AnalyticsSinks(t *testing.T) {
	received := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t, config.BackendMemory)
	cfg.Analytics.Enabled = true
	cfg.Analytics.Prometheus = true
	cfg.Analytics.Endpoint = srv.URL
	cfg.Analytics.RatePerSecond = 100
	registry := prometheus.NewRegistry()
	ctx := context.Background()

	rt, err := buildRuntime(ctx, cfg, runtimeOptions{registry: registry})
	require.NoError(t, err)
	require.NoError(t, rt.engine.Resolve(ctx))
	require.NoError(t, rt.engine.ToggleTheme(ctx))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("analytics endpoint not called")
	}
	require.NoError(t, rt.engine.Close())
	rt.closeAll()

	count, err := testutil.GatherAndCount(registry, "themesync_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBuildRuntime_MirrorRequiresEndpoint(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Mirror.Enabled = true

	_, err := buildRuntime(context.Background(), cfg, runtimeOptions{})

	assert.ErrorContains(t, err, "mirror")
}
