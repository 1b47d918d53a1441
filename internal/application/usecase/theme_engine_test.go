package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bnema/themesync/internal/application/port"
	mock_port "github.com/bnema/themesync/internal/application/port/mocks"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/infrastructure/persistence/memory"
	"github.com/bnema/themesync/internal/infrastructure/preference"
)

const eventually = 2 * time.Second

// stepClock advances one second per reading so stamps are distinct and can be
// shared between engines.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeDetector struct {
	mu        sync.Mutex
	supported bool
	value     entity.ThemeValue
	subs      map[int]func(entity.ThemeValue)
	next      int
}

func newFakeDetector(supported bool, value entity.ThemeValue) *fakeDetector {
	if !supported {
		value = entity.ThemeUnknown
	}
	return &fakeDetector{supported: supported, value: value, subs: make(map[int]func(entity.ThemeValue))}
}

func (d *fakeDetector) CurrentValue() entity.ThemeValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

func (d *fakeDetector) Supported() bool { return d.supported }

func (d *fakeDetector) Subscribe(callback func(entity.ThemeValue)) port.Unsubscribe {
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = callback
	d.mu.Unlock()
	return port.OnceUnsubscribe(func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	})
}

func (d *fakeDetector) set(v entity.ThemeValue) {
	d.mu.Lock()
	if v == d.value {
		d.mu.Unlock()
		return
	}
	d.value = v
	subs := make([]func(entity.ThemeValue), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

func (d *fakeDetector) subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// countingStore records how often the engine reads and writes.
type countingStore struct {
	port.PreferenceStore
	reads  atomic.Int32
	writes atomic.Int32
}

func (s *countingStore) Read(ctx context.Context) (entity.Preference, bool) {
	s.reads.Add(1)
	return s.PreferenceStore.Read(ctx)
}

func (s *countingStore) Write(ctx context.Context, p entity.Preference) {
	s.writes.Add(1)
	s.PreferenceStore.Write(ctx, p)
}

// blockingStore holds Read until release is closed or the read deadline passes.
type blockingStore struct {
	release chan struct{}
	stored  *entity.Preference
	writes  atomic.Int32
}

func newBlockingStore() *blockingStore {
	return &blockingStore{release: make(chan struct{})}
}

func (s *blockingStore) Read(ctx context.Context) (entity.Preference, bool) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return entity.Preference{}, false
	}
	if s.stored == nil {
		return entity.Preference{}, false
	}
	return *s.stored, true
}

func (s *blockingStore) Write(context.Context, entity.Preference) { s.writes.Add(1) }
func (s *blockingStore) Clear(context.Context)                    {}
func (s *blockingStore) Degraded() bool                           { return false }

type fakeChannel struct {
	mu   sync.Mutex
	subs []func(entity.Preference)
}

func (c *fakeChannel) OnExternalWrite(callback func(entity.Preference)) port.Unsubscribe {
	c.mu.Lock()
	c.subs = append(c.subs, callback)
	c.mu.Unlock()
	return port.NopUnsubscribe()
}

func (c *fakeChannel) Close() error { return nil }

func (c *fakeChannel) emit(p entity.Preference) {
	c.mu.Lock()
	subs := append([]func(entity.Preference){}, c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(p)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []entity.AnalyticsEvent
}

func (s *recordingSink) Record(_ context.Context, event entity.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) kinds() []entity.AnalyticsKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.AnalyticsKind, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	hub      *memory.Hub
	backend  *memory.Backend
	store    *countingStore
	detector *fakeDetector
	engine   *ThemeEngine
}

func newFixture(t *testing.T, hub *memory.Hub, detector *fakeDetector, opts ...EngineOption) *fixture {
	t.Helper()
	ctx := context.Background()
	if hub == nil {
		hub = memory.NewHub()
	}
	backend := memory.NewBackend(hub)
	store := &countingStore{PreferenceStore: preference.NewStore(ctx, backend)}
	channel := memory.NewChannel(ctx, backend)
	engine := NewThemeEngine(store, detector, channel, opts...)
	t.Cleanup(func() { _ = engine.Close() })
	return &fixture{hub: hub, backend: backend, store: store, detector: detector, engine: engine}
}

func seed(t *testing.T, hub *memory.Hub, p entity.Preference) {
	t.Helper()
	payload, err := entity.EncodePreference(p)
	require.NoError(t, err)
	memory.NewBackend(hub).Raw(payload)
}

func stored(t *testing.T, f *fixture) entity.Preference {
	t.Helper()
	payload, err := f.backend.Load(context.Background())
	require.NoError(t, err)
	p, err := entity.DecodePreference(payload)
	require.NoError(t, err)
	return p
}

// flush waits until every event already posted to the engine loop has run.
func flush(t *testing.T, e *ThemeEngine) {
	t.Helper()
	require.NoError(t, e.loop.Call(context.Background(), func() {}))
}

func TestEngine_StoredValueWins(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		record entity.Preference
		signal entity.ThemeValue
		want   entity.ThemeValue
	}{
		{"user dark over light signal", entity.NewUserPreference(entity.ModeDark, at), entity.ThemeLight, entity.ThemeDark},
		{"user light over dark signal", entity.NewUserPreference(entity.ModeLight, at), entity.ThemeDark, entity.ThemeLight},
		{"detected dark over light signal", entity.NewDetectedPreference(entity.ThemeDark, at), entity.ThemeLight, entity.ThemeDark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := memory.NewHub()
			seed(t, hub, tt.record)
			f := newFixture(t, hub, newFakeDetector(true, tt.signal))

			require.NoError(t, f.engine.Resolve(context.Background()))

			assert.Equal(t, tt.want, f.engine.Theme())
			assert.False(t, f.engine.Loading())
			assert.Equal(t, tt.record.Mode, f.engine.Snapshot().Mode)
			assert.Zero(t, f.store.writes.Load(), "a stored record is adopted without rewriting it")
		})
	}
}

func TestEngine_ColdStartAdoptsSignal(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeDark), WithClock(newStepClock().Now))

	require.NoError(t, f.engine.Resolve(context.Background()))

	assert.Equal(t, entity.ThemeDark, f.engine.Theme())
	rec := stored(t, f)
	assert.Equal(t, entity.ModeDark, rec.Mode)
	assert.True(t, rec.SystemDetected)
	assert.False(t, rec.UserSet)
	assert.Equal(t, entity.SchemaVersion, rec.SchemaVersion)
}

func TestEngine_UnsupportedSignalFallsBackToLight(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(false, entity.ThemeDark))

	require.NoError(t, f.engine.Resolve(context.Background()))

	assert.Equal(t, entity.ThemeLight, f.engine.Theme())
	assert.Equal(t, entity.ThemeUnknown, f.engine.SystemSignal())
	rec := stored(t, f)
	assert.False(t, rec.SystemDetected)
	assert.False(t, rec.UserSet)
	assert.False(t, f.engine.Snapshot().SignalSupported)
}

func TestEngine_NilDetectorBehavesAsUnsupported(t *testing.T) {
	store := &countingStore{PreferenceStore: preference.NewStore(context.Background(), memory.NewBackend(nil))}
	e := NewThemeEngine(store, nil, nil)
	t.Cleanup(func() { _ = e.Close() })

	require.NoError(t, e.Resolve(context.Background()))

	assert.Equal(t, entity.ThemeLight, e.Theme())
	assert.Equal(t, entity.ThemeUnknown, e.SystemSignal())
}

func TestEngine_UserChoiceIgnoresSignal(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeDark))
	ctx := context.Background()
	require.NoError(t, f.engine.Start(ctx))

	require.NoError(t, f.engine.SetTheme(ctx, entity.ThemeDark))
	f.detector.set(entity.ThemeLight)
	flush(t, f.engine)

	assert.Equal(t, entity.ThemeDark, f.engine.Theme())
	assert.Equal(t, entity.ThemeLight, f.engine.SystemSignal())
	rec := stored(t, f)
	assert.True(t, rec.UserSet)
	assert.Equal(t, entity.ModeDark, rec.Mode)
}

func TestEngine_ToggleRoundTrip(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(false, entity.ThemeUnknown))
	ctx := context.Background()
	require.NoError(t, f.engine.Resolve(ctx))
	require.Equal(t, entity.ThemeLight, f.engine.Theme())

	require.NoError(t, f.engine.ToggleTheme(ctx))
	assert.Equal(t, entity.ThemeDark, f.engine.Theme())
	assert.True(t, stored(t, f).UserSet)

	require.NoError(t, f.engine.ToggleTheme(ctx))
	assert.Equal(t, entity.ThemeLight, f.engine.Theme())
	assert.True(t, stored(t, f).UserSet)
}

func TestEngine_ToggleFromSystemModeFlipsDisplayedValue(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeDark))
	ctx := context.Background()
	require.NoError(t, f.engine.FollowSystem(ctx))
	require.Equal(t, entity.ThemeDark, f.engine.Theme())

	require.NoError(t, f.engine.ToggleTheme(ctx))

	assert.Equal(t, entity.ThemeLight, f.engine.Theme())
	assert.Equal(t, entity.ModeLight, stored(t, f).Mode)
}

func TestEngine_CorruptedRecordIsReplaced(t *testing.T) {
	hub := memory.NewHub()
	memory.NewBackend(hub).Raw([]byte(`{"mode":"dark","last_updated":"2026-01-01T00:00:00Z","system_detected":false,"user_set":true}`))
	f := newFixture(t, hub, newFakeDetector(false, entity.ThemeUnknown))

	require.NoError(t, f.engine.Resolve(context.Background()))

	assert.Equal(t, entity.ThemeLight, f.engine.Theme())
	rec := stored(t, f)
	assert.Equal(t, entity.SchemaVersion, rec.SchemaVersion)
	assert.False(t, rec.UserSet)
}

func TestEngine_CrossInstancePropagation(t *testing.T) {
	hub := memory.NewHub()
	clock := newStepClock()
	ctx := context.Background()

	b := newFixture(t, hub, newFakeDetector(false, entity.ThemeUnknown), WithClock(clock.Now), WithInstanceID("b"))
	require.NoError(t, b.engine.Start(ctx))
	require.NoError(t, b.engine.Resolve(ctx))
	require.Equal(t, entity.ThemeLight, b.engine.Theme())

	a := newFixture(t, hub, newFakeDetector(false, entity.ThemeUnknown), WithClock(clock.Now), WithInstanceID("a"))
	require.NoError(t, a.engine.Resolve(ctx))
	require.NoError(t, a.engine.SetTheme(ctx, entity.ThemeDark))

	assert.Eventually(t, func() bool {
		return b.engine.Theme() == entity.ThemeDark
	}, eventually, 5*time.Millisecond)
	assert.Equal(t, int32(1), b.store.reads.Load(), "b adopts the record without resolving again")
	assert.Equal(t, int32(1), b.store.writes.Load(), "an adopted record is not written back")
	assert.True(t, b.engine.Snapshot().Preference.UserSet)
}

func TestEngine_StaleExternalWriteIgnored(t *testing.T) {
	channel := &fakeChannel{}
	store := &countingStore{PreferenceStore: preference.NewStore(context.Background(), memory.NewBackend(nil))}
	e := NewThemeEngine(store, newFakeDetector(false, entity.ThemeUnknown), channel, WithClock(newStepClock().Now))
	t.Cleanup(func() { _ = e.Close() })
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	require.NoError(t, e.SetTheme(ctx, entity.ThemeDark))

	old := entity.NewUserPreference(entity.ModeLight, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	channel.emit(old)
	flush(t, e)

	assert.Equal(t, entity.ThemeDark, e.Theme())
}

func TestEngine_SyncDuringResolutionIsHeld(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want entity.ThemeValue
	}{
		{"newer record applied after resolution", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), entity.ThemeDark},
		{"older record dropped", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), entity.ThemeLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newBlockingStore()
			channel := &fakeChannel{}
			e := NewThemeEngine(store, newFakeDetector(false, entity.ThemeUnknown), channel, WithClock(newStepClock().Now))
			t.Cleanup(func() { _ = e.Close() })
			ctx := context.Background()
			require.NoError(t, e.Start(ctx))

			require.Eventually(t, func() bool {
				return e.Snapshot().State == StateResolving
			}, eventually, time.Millisecond)
			channel.emit(entity.NewUserPreference(entity.ModeDark, tt.at))
			flush(t, e)
			assert.True(t, e.Loading())

			close(store.release)
			require.NoError(t, e.Resolve(ctx))

			assert.Equal(t, tt.want, e.Theme())
		})
	}
}

func TestEngine_ReadTimeoutFallsBackWithoutWriting(t *testing.T) {
	store := newBlockingStore()
	e := NewThemeEngine(store, newFakeDetector(true, entity.ThemeDark), nil, WithReadTimeout(20*time.Millisecond))
	t.Cleanup(func() { _ = e.Close() })

	require.NoError(t, e.Resolve(context.Background()))

	assert.Equal(t, entity.ThemeDark, e.Theme())
	assert.False(t, e.Loading())
	assert.Zero(t, store.writes.Load())
}

// stallingBackend never answers Load until released.
type stallingBackend struct {
	release chan struct{}
}

func (*stallingBackend) Name() string { return "stalling" }

func (*stallingBackend) Probe(context.Context) error { return nil }

func (*stallingBackend) Save(context.Context, []byte) error { return nil }

func (*stallingBackend) Delete(context.Context) error { return nil }

func (b *stallingBackend) Load(context.Context) ([]byte, error) {
	<-b.release
	return nil, entity.ErrNoRecord
}

func TestEngine_ReadTimeoutWithRealStoreTerminates(t *testing.T) {
	backend := &stallingBackend{release: make(chan struct{})}
	store := preference.NewStore(context.Background(), backend)
	e := NewThemeEngine(store, nil, nil, WithReadTimeout(20*time.Millisecond))
	t.Cleanup(func() {
		close(backend.release)
		_ = e.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Resolve(ctx))

	snap := e.Snapshot()
	assert.Equal(t, StateResolved, snap.State)
	assert.False(t, snap.Loading)
	assert.Equal(t, entity.DefaultTheme, snap.Theme)
	assert.False(t, snap.StoreDegraded)
}

func TestEngine_ConcurrentResolveSharesOneRead(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeLight))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.engine.Resolve(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.store.reads.Load())
	assert.Equal(t, int32(1), f.store.writes.Load())
}

func TestEngine_ResolveWaitHonoursContext(t *testing.T) {
	store := newBlockingStore()
	e := NewThemeEngine(store, nil, nil, WithReadTimeout(time.Minute))
	t.Cleanup(func() { _ = e.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, e.Resolve(ctx), context.DeadlineExceeded)
	assert.True(t, e.Loading())

	close(store.release)
	require.NoError(t, e.Resolve(context.Background()))
	assert.False(t, e.Loading())
}

func TestEngine_UnsetPreferenceAdoptsSignalChanges(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeLight), WithClock(newStepClock().Now))
	ctx := context.Background()
	require.NoError(t, f.engine.Start(ctx))
	require.NoError(t, f.engine.Resolve(ctx))
	require.Equal(t, entity.ThemeLight, f.engine.Theme())

	f.detector.set(entity.ThemeDark)

	assert.Eventually(t, func() bool {
		return f.engine.Theme() == entity.ThemeDark
	}, eventually, 5*time.Millisecond)
	rec := stored(t, f)
	assert.Equal(t, entity.ModeDark, rec.Mode)
	assert.True(t, rec.SystemDetected)
	assert.False(t, rec.UserSet)
}

func TestEngine_SystemModeFollowsSignalWithoutWriting(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeLight))
	ctx := context.Background()
	require.NoError(t, f.engine.Start(ctx))
	require.NoError(t, f.engine.FollowSystem(ctx))
	writes := f.store.writes.Load()

	f.detector.set(entity.ThemeDark)

	assert.Eventually(t, func() bool {
		return f.engine.Theme() == entity.ThemeDark
	}, eventually, 5*time.Millisecond)
	assert.Equal(t, writes, f.store.writes.Load())
	rec := stored(t, f)
	assert.Equal(t, entity.ModeSystem, rec.Mode)
	assert.True(t, rec.UserSet)
}

func TestEngine_ResetResolvesAgain(t *testing.T) {
	hub := memory.NewHub()
	seed(t, hub, entity.NewUserPreference(entity.ModeDark, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	sink := &recordingSink{}
	f := newFixture(t, hub, newFakeDetector(true, entity.ThemeLight), WithAnalytics(sink))
	ctx := context.Background()
	require.NoError(t, f.engine.Resolve(ctx))
	require.Equal(t, entity.ThemeDark, f.engine.Theme())

	require.NoError(t, f.engine.ResetPreference(ctx))

	assert.Equal(t, entity.ThemeLight, f.engine.Theme())
	rec := stored(t, f)
	assert.True(t, rec.SystemDetected)
	assert.False(t, rec.UserSet)
	require.NoError(t, f.engine.Close())
	assert.Contains(t, sink.kinds(), entity.EventReset)
	assert.Contains(t, sink.kinds(), entity.EventSystemAdopted)
}

func TestEngine_SetThemeRejectsUnknownValue(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(false, entity.ThemeUnknown))

	err := f.engine.SetTheme(context.Background(), entity.ThemeValue("sepia"))

	assert.ErrorIs(t, err, entity.ErrInvalidTheme)
	assert.Zero(t, f.store.reads.Load())
}

func TestEngine_SubscribersSeeResolvedChanges(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(false, entity.ThemeUnknown))
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []ThemeSnapshot
	)
	f.engine.Subscribe(func(ThemeSnapshot) { panic("subscriber failure") })
	unsub := f.engine.Subscribe(func(s ThemeSnapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(seen)
	}

	require.NoError(t, f.engine.Resolve(ctx))
	require.NoError(t, f.engine.SetTheme(ctx, entity.ThemeDark))

	require.Eventually(t, func() bool { return count() == 2 }, eventually, 5*time.Millisecond)
	mu.Lock()
	assert.False(t, seen[0].Loading)
	assert.Equal(t, entity.ThemeLight, seen[0].Theme)
	assert.Equal(t, entity.ThemeDark, seen[1].Theme)
	mu.Unlock()

	unsub()
	unsub()
	require.NoError(t, f.engine.SetTheme(ctx, entity.ThemeLight))
	require.NoError(t, f.engine.Close())
	assert.Equal(t, 2, count())
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeLight))
	ctx := context.Background()
	require.NoError(t, f.engine.Start(ctx))
	require.NoError(t, f.engine.Resolve(ctx))
	require.Equal(t, 1, f.detector.subscribers())

	require.NoError(t, f.engine.Close())
	require.NoError(t, f.engine.Close())

	assert.Zero(t, f.detector.subscribers())
	assert.ErrorIs(t, f.engine.SetTheme(ctx, entity.ThemeDark), entity.ErrEngineClosed)
	assert.ErrorIs(t, f.engine.Resolve(ctx), entity.ErrEngineClosed)
	assert.ErrorIs(t, f.engine.Start(ctx), entity.ErrEngineClosed)
}

func TestEngine_ClosesWithStartContext(t *testing.T) {
	f := newFixture(t, nil, newFakeDetector(true, entity.ThemeLight))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.engine.Start(ctx))

	cancel()

	assert.Eventually(t, func() bool {
		return f.engine.closed.Load()
	}, eventually, 5*time.Millisecond)
}

func TestEngine_ReportsToSinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_port.NewMockAnalyticsSink(ctrl)
	mirror := mock_port.NewMockPreferenceMirror(ctrl)

	sink.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ev entity.AnalyticsEvent) error {
			assert.Equal(t, "i-1", ev.Context["instance_id"])
			return nil
		}).Times(2)
	mirror.EXPECT().Mirror(gomock.Any(), gomock.Any()).Times(2)

	f := newFixture(t, nil, newFakeDetector(false, entity.ThemeUnknown),
		WithAnalytics(sink), WithMirror(mirror), WithInstanceID("i-1"))
	ctx := context.Background()
	require.NoError(t, f.engine.Resolve(ctx))
	require.NoError(t, f.engine.SetTheme(ctx, entity.ThemeDark))

	require.NoError(t, f.engine.Close())
}

func TestEngine_PanickingSinkDoesNotBreakEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock_port.NewMockAnalyticsSink(ctrl)
	sink.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, entity.AnalyticsEvent) error { panic("sink down") }).MinTimes(1)

	f := newFixture(t, nil, newFakeDetector(false, entity.ThemeUnknown), WithAnalytics(sink))
	ctx := context.Background()
	require.NoError(t, f.engine.Resolve(ctx))
	require.NoError(t, f.engine.ToggleTheme(ctx))

	assert.Equal(t, entity.ThemeDark, f.engine.Theme())
	require.NoError(t, f.engine.Close())
}
