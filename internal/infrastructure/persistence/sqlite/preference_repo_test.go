package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/themesync/internal/logging"
)

func testCtx() context.Context {
	logger := logging.NewFromConfigValues("debug", "console")
	return logging.WithContext(context.Background(), logger)
}

func newBackend(t *testing.T, path string) *sqlite.Backend {
	t.Helper()
	lazy := sqlite.NewLazyDB(path)
	t.Cleanup(func() { _ = lazy.Close() })
	return sqlite.NewBackend(lazy, "")
}

func encode(t *testing.T, mode entity.ThemeMode, at time.Time) []byte {
	t.Helper()
	payload, err := entity.EncodePreference(entity.NewUserPreference(mode, at))
	require.NoError(t, err)
	return payload
}

func TestBackend_SaveLoadDelete(t *testing.T) {
	ctx := testCtx()
	b := newBackend(t, filepath.Join(t.TempDir(), "themesync.db"))

	require.NoError(t, b.Probe(ctx))
	assert.Equal(t, "sqlite", b.Name())
	assert.Equal(t, sqlite.DefaultKey, b.Key())

	_, err := b.Load(ctx)
	require.ErrorIs(t, err, entity.ErrNoRecord)

	first := encode(t, entity.ModeDark, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, b.Save(ctx, first))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := encode(t, entity.ModeLight, time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC))
	require.NoError(t, b.Save(ctx, second))
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.True(t, b.IsSelfWrite(second))
	assert.False(t, b.IsSelfWrite(first))

	require.NoError(t, b.Delete(ctx))
	_, err = b.Load(ctx)
	require.ErrorIs(t, err, entity.ErrNoRecord)
	require.NoError(t, b.Delete(ctx))
}

func TestBackend_KeysAreIsolated(t *testing.T) {
	ctx := testCtx()
	lazy := sqlite.NewLazyDB(filepath.Join(t.TempDir(), "themesync.db"))
	t.Cleanup(func() { _ = lazy.Close() })

	a := sqlite.NewBackend(lazy, "app-a")
	b := sqlite.NewBackend(lazy, "app-b")

	require.NoError(t, a.Save(ctx, encode(t, entity.ModeDark, time.Now())))
	_, err := b.Load(ctx)
	require.ErrorIs(t, err, entity.ErrNoRecord)
}

func TestBackend_ProbeUnavailable(t *testing.T) {
	ctx := testCtx()
	b := sqlite.NewBackend(sqlite.NewLazyDB(""), "")

	err := b.Probe(ctx)
	require.ErrorIs(t, err, entity.ErrStorageUnavailable)
}

func TestChannel_DeliversForeignCommits(t *testing.T) {
	ctx := testCtx()
	path := filepath.Join(t.TempDir(), "themesync.db")
	writer := newBackend(t, path)
	reader := newBackend(t, path)

	writerCh, err := sqlite.NewChannel(ctx, writer, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writerCh.Close() })
	readerCh, err := sqlite.NewChannel(ctx, reader, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = readerCh.Close() })

	writerSeen := make(chan entity.Preference, 4)
	readerSeen := make(chan entity.Preference, 4)
	writerCh.OnExternalWrite(func(p entity.Preference) { writerSeen <- p })
	readerCh.OnExternalWrite(func(p entity.Preference) { readerSeen <- p })

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, writer.Save(ctx, encode(t, entity.ModeDark, at)))

	select {
	case p := <-readerSeen:
		assert.Equal(t, entity.ModeDark, p.Mode)
		assert.True(t, p.LastUpdated.Equal(at))
	case <-time.After(3 * time.Second):
		t.Fatal("reader did not observe the commit")
	}

	select {
	case p := <-writerSeen:
		t.Fatalf("writer observed its own commit: %+v", p)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestChannel_DropsMalformedPayload(t *testing.T) {
	ctx := testCtx()
	path := filepath.Join(t.TempDir(), "themesync.db")
	writer := newBackend(t, path)
	reader := newBackend(t, path)

	ch, err := sqlite.NewChannel(ctx, reader, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	seen := make(chan entity.Preference, 4)
	ch.OnExternalWrite(func(p entity.Preference) { seen <- p })

	require.NoError(t, writer.Save(ctx, []byte(`{"mode":"purple"}`)))
	select {
	case p := <-seen:
		t.Fatalf("malformed payload delivered: %+v", p)
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, writer.Save(ctx, encode(t, entity.ModeSystem, time.Now())))
	select {
	case p := <-seen:
		assert.Equal(t, entity.ModeSystem, p.Mode)
	case <-time.After(3 * time.Second):
		t.Fatal("valid payload after malformed one was not delivered")
	}
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	ctx := testCtx()
	b := newBackend(t, filepath.Join(t.TempDir(), "themesync.db"))

	ch, err := sqlite.NewChannel(ctx, b, 0)
	require.NoError(t, err)
	unsub := ch.OnExternalWrite(func(entity.Preference) {})
	unsub()
	unsub()
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
}
