// Package usecase contains the application use cases: the theme resolution
// engine and the helpers the CLI builds on it.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
	"github.com/bnema/themesync/internal/mainloop"
)

const (
	// DefaultReadTimeout bounds the store read during resolution.
	DefaultReadTimeout = 2 * time.Second

	defaultSinkTimeout = 3 * time.Second

	resolveKey = "resolve"
	signalKey  = "signal"
)

// EngineOption configures a ThemeEngine.
type EngineOption func(*ThemeEngine)

// WithAnalytics reports preference events to sink.
func WithAnalytics(sink port.AnalyticsSink) EngineOption {
	return func(e *ThemeEngine) { e.analytics = sink }
}

// WithMirror copies the record to m after resolution and every local write.
func WithMirror(m port.PreferenceMirror) EngineOption {
	return func(e *ThemeEngine) { e.mirror = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *ThemeEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithReadTimeout bounds the store read during resolution.
func WithReadTimeout(d time.Duration) EngineOption {
	return func(e *ThemeEngine) {
		if d > 0 {
			e.readTimeout = d
		}
	}
}

// WithInstanceID tags logs and analytics events with id.
func WithInstanceID(id string) EngineOption {
	return func(e *ThemeEngine) { e.instanceID = id }
}

// ThemeEngine decides, from the stored record, the OS signal and writes made
// by other instances, which theme is displayed.
//
// All decisions run on one serial loop. Detector and sync callbacks only post
// events to it; readers use the atomically published ThemeSnapshot.
type ThemeEngine struct {
	store       port.PreferenceStore
	detector    port.SystemSignalDetector
	channel     port.SyncChannel
	analytics   port.AnalyticsSink
	mirror      port.PreferenceMirror
	now         func() time.Time
	readTimeout time.Duration
	sinkTimeout time.Duration
	instanceID  string

	loop     *mainloop.Loop
	notifier *mainloop.Loop
	resolves singleflight.Group
	snapshot atomic.Pointer[ThemeSnapshot]

	// Owned by the loop goroutine.
	state           EngineState
	pref            entity.Preference
	signal          entity.ThemeValue
	pending         *entity.Preference
	generation      uint64
	lastStamp       time.Time
	notified        *ThemeSnapshot
	degradeReported bool

	subMu       sync.Mutex
	subscribers map[uint64]func(ThemeSnapshot)
	nextSubID   uint64
	unsubs      []port.Unsubscribe

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	sinks     sync.WaitGroup
}

// NewThemeEngine creates an engine. detector and channel may be nil: a nil
// detector behaves as an unsupported signal, a nil channel disables sync.
func NewThemeEngine(
	store port.PreferenceStore,
	detector port.SystemSignalDetector,
	channel port.SyncChannel,
	opts ...EngineOption,
) *ThemeEngine {
	if detector == nil {
		detector = noSignal{}
	}

	e := &ThemeEngine{
		store:       store,
		detector:    detector,
		channel:     channel,
		now:         time.Now,
		readTimeout: DefaultReadTimeout,
		sinkTimeout: defaultSinkTimeout,
		loop:        mainloop.New(),
		notifier:    mainloop.New(),
		subscribers: make(map[uint64]func(ThemeSnapshot)),
		signal:      detector.CurrentValue(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.snapshot.Store(&ThemeSnapshot{
		Theme:           entity.DefaultTheme,
		SystemSignal:    e.signal,
		Loading:         true,
		State:           StateUninitialized,
		StoreDegraded:   store.Degraded(),
		SignalSupported: detector.Supported(),
	})
	return e
}

// Start subscribes to the detector and sync channel, starts the loop and
// begins resolution in the background. The engine closes when ctx is done.
func (e *ThemeEngine) Start(ctx context.Context) error {
	if e.closed.Load() {
		return entity.ErrEngineClosed
	}
	e.start(ctx)
	context.AfterFunc(ctx, func() { _ = e.Close() })

	go func() {
		if err := e.Resolve(e.ctx); err != nil && !errors.Is(err, entity.ErrEngineClosed) {
			logging.FromContext(e.ctx).Warn().Err(err).Msg("background resolution failed")
		}
	}()
	return nil
}

func (e *ThemeEngine) start(ctx context.Context) {
	e.startOnce.Do(func() {
		base := logging.WithComponent(context.WithoutCancel(ctx), "engine")
		if e.instanceID != "" {
			base = logging.WithInstanceID(base, e.instanceID)
		}
		e.ctx, e.cancel = context.WithCancel(base)

		var unsubs []port.Unsubscribe
		if e.detector.Supported() {
			unsubs = append(unsubs, e.detector.Subscribe(func(v entity.ThemeValue) {
				_ = e.loop.PostCoalesced(signalKey, func() { e.onSignal(v) })
			}))
		}
		if e.channel != nil {
			unsubs = append(unsubs, e.channel.OnExternalWrite(func(p entity.Preference) {
				_ = e.loop.Post(func() { e.onExternalWrite(p) })
			}))
		}
		e.subMu.Lock()
		e.unsubs = unsubs
		e.subMu.Unlock()

		e.loop.Start(e.ctx)
		e.notifier.Start(e.ctx)
	})
}

// Resolve runs resolution if the engine is not resolved yet and waits for it.
// Concurrent calls share one in-flight attempt. Cancelling ctx only stops the
// wait; the resolution itself always runs to completion.
func (e *ThemeEngine) Resolve(ctx context.Context) error {
	if e.closed.Load() {
		return entity.ErrEngineClosed
	}
	e.start(ctx)

	ch := e.resolves.DoChan(resolveKey, func() (any, error) {
		return nil, e.resolve()
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *ThemeEngine) resolve() error {
	for {
		var (
			done bool
			gen  uint64
		)
		err := e.loop.Call(e.ctx, func() {
			if e.state == StateResolved {
				done = true
				return
			}
			if e.state == StateUninitialized {
				e.state = StateResolving
				e.publish()
			}
			gen = e.generation
		})
		if err != nil {
			return loopErr(err)
		}
		if done {
			return nil
		}

		pref, ok, timedOut := e.readStore()

		err = e.loop.Call(e.ctx, func() {
			// A reset or an explicit choice made during the read supersedes it.
			if gen != e.generation || e.state != StateResolving {
				return
			}
			e.completeResolution(pref, ok, timedOut)
		})
		if err != nil {
			return loopErr(err)
		}
	}
}

func (e *ThemeEngine) readStore() (pref entity.Preference, ok, timedOut bool) {
	type result struct {
		pref entity.Preference
		ok   bool
	}

	readCtx, cancel := context.WithTimeout(e.ctx, e.readTimeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		p, found := e.store.Read(readCtx)
		ch <- result{pref: p, ok: found}
	}()

	select {
	case r := <-ch:
		return r.pref, r.ok, false
	case <-readCtx.Done():
		logging.FromContext(e.ctx).Warn().
			Dur("timeout", e.readTimeout).
			Msg("store read did not complete, falling back without writing")
		return entity.Preference{}, false, true
	}
}

func (e *ThemeEngine) completeResolution(stored entity.Preference, ok, timedOut bool) {
	log := logging.FromContext(e.ctx)

	e.signal = e.detector.CurrentValue()
	kind, source := entity.EventResolved, "store"

	if ok {
		e.pref = stored
	} else {
		at := e.stamp()
		if e.detector.Supported() {
			e.pref = entity.NewDetectedPreference(e.signal.OrDefault(), at)
			kind, source = entity.EventSystemAdopted, "signal"
		} else {
			e.pref = entity.NewDefaultPreference(at)
			source = "default"
		}
		if !timedOut {
			e.store.Write(e.ctx, e.pref)
		}
	}
	e.state = StateResolved
	e.observe(e.pref)

	adoptedSync := false
	if p := e.pending; p != nil {
		e.pending = nil
		if p.NewerThan(e.pref) {
			e.pref = *p
			e.observe(e.pref)
			adoptedSync = true
		}
	}

	e.publish()

	displayed := e.displayed()
	log.Info().
		Str("theme", displayed.String()).
		Str("mode", string(e.pref.Mode)).
		Str("source", source).
		Bool("user_set", e.pref.UserSet).
		Msg("theme resolved")

	e.report(kind, displayed.String(), map[string]string{"mode": string(e.pref.Mode), "source": source})
	if adoptedSync {
		e.report(entity.EventSyncAdopted, displayed.String(), map[string]string{"mode": string(e.pref.Mode)})
	}
	e.mirrorRecord(e.pref)
	e.checkDegraded()
}

// Snapshot returns the last published state.
func (e *ThemeEngine) Snapshot() ThemeSnapshot {
	return *e.snapshot.Load()
}

// Theme returns the displayed value.
func (e *ThemeEngine) Theme() entity.ThemeValue {
	return e.snapshot.Load().Theme
}

// SystemSignal returns the raw OS signal, ThemeUnknown when there is none.
func (e *ThemeEngine) SystemSignal() entity.ThemeValue {
	return e.snapshot.Load().SystemSignal
}

// Loading reports whether the engine is not resolved yet.
func (e *ThemeEngine) Loading() bool {
	return e.snapshot.Load().Loading
}

// SetTheme records an explicit user choice of value.
func (e *ThemeEngine) SetTheme(ctx context.Context, value entity.ThemeValue) error {
	if !value.Known() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidTheme, string(value))
	}
	return e.mutate(ctx, func() {
		e.applyUserMode(entity.ModeFor(value), entity.EventThemeSet)
	})
}

// ToggleTheme switches the displayed value to the opposite one.
func (e *ThemeEngine) ToggleTheme(ctx context.Context) error {
	return e.mutate(ctx, func() {
		next := e.displayed().Opposite()
		e.applyUserMode(entity.ModeFor(next), entity.EventThemeToggled)
	})
}

// FollowSystem records an explicit choice to track the OS signal.
func (e *ThemeEngine) FollowSystem(ctx context.Context) error {
	return e.mutate(ctx, func() {
		e.applyUserMode(entity.ModeSystem, entity.EventFollowSystem)
	})
}

// ResetPreference clears the record and resolves again as on first run.
func (e *ThemeEngine) ResetPreference(ctx context.Context) error {
	if e.closed.Load() {
		return entity.ErrEngineClosed
	}
	e.start(ctx)

	err := e.loop.Call(ctx, func() {
		e.store.Clear(e.ctx)
		e.state = StateResolving
		e.pref = entity.Preference{}
		e.pending = nil
		e.generation++
		e.publish()

		logging.FromContext(e.ctx).Info().Msg("preference reset")
		e.report(entity.EventReset, "", nil)
	})
	if err != nil {
		return loopErr(err)
	}
	return e.Resolve(ctx)
}

// Subscribe registers callback for snapshots published after resolution.
// Callbacks run in order on a dedicated goroutine and may call back into
// the engine.
func (e *ThemeEngine) Subscribe(callback func(ThemeSnapshot)) port.Unsubscribe {
	if callback == nil {
		return port.NopUnsubscribe()
	}

	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = callback
	e.subMu.Unlock()

	return port.OnceUnsubscribe(func() {
		e.subMu.Lock()
		delete(e.subscribers, id)
		e.subMu.Unlock()
	})
}

// Close releases the detector and channel subscriptions and stops the
// engine. It is safe to call more than once.
func (e *ThemeEngine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		e.subMu.Lock()
		unsubs := e.unsubs
		e.unsubs = nil
		e.subMu.Unlock()
		for _, unsub := range unsubs {
			unsub()
		}

		e.loop.Stop()
		<-e.loop.Done()
		e.notifier.Stop()

		if e.cancel != nil {
			e.cancel()
		}
		e.sinks.Wait()
	})
	return nil
}

func (e *ThemeEngine) mutate(ctx context.Context, fn func()) error {
	if e.closed.Load() {
		return entity.ErrEngineClosed
	}
	if err := e.Resolve(ctx); err != nil {
		return err
	}
	return loopErr(e.loop.Call(ctx, fn))
}

func (e *ThemeEngine) applyUserMode(mode entity.ThemeMode, kind entity.AnalyticsKind) {
	if e.state != StateResolved {
		// The explicit choice ends a resolution still reading the store.
		e.generation++
		e.pending = nil
		e.state = StateResolved
		e.signal = e.detector.CurrentValue()
	}

	e.pref = entity.NewUserPreference(mode, e.stamp())
	e.store.Write(e.ctx, e.pref)
	e.publish()

	displayed := e.displayed()
	logging.FromContext(e.ctx).Info().
		Str("mode", string(mode)).
		Str("theme", displayed.String()).
		Str("event_kind", string(kind)).
		Msg("theme preference updated")

	e.report(kind, displayed.String(), map[string]string{"mode": string(mode)})
	e.mirrorRecord(e.pref)
	e.checkDegraded()
}

func (e *ThemeEngine) onSignal(v entity.ThemeValue) {
	if !v.Known() || v == e.signal && e.state == StateResolved {
		return
	}
	e.signal = v

	if e.state != StateResolved {
		// Resolution reads the detector itself once the store answered.
		e.publish()
		return
	}

	log := logging.FromContext(e.ctx)
	switch {
	case e.pref.Mode == entity.ModeSystem:
		e.publish()
		log.Debug().Str("signal", v.String()).Msg("following system signal")
		e.report(entity.EventSignalAdopted, v.String(), map[string]string{"mode": string(entity.ModeSystem)})

	case e.pref.UserSet:
		e.publish()
		log.Debug().Str("signal", v.String()).Msg("ignoring system signal, preference is user set")
		e.report(entity.EventSignalIgnored, v.String(), nil)

	case e.pref.SystemDetected && e.pref.Mode == entity.ModeFor(v):
		e.publish()

	default:
		e.pref = entity.NewDetectedPreference(v, e.stamp())
		e.store.Write(e.ctx, e.pref)
		e.publish()
		log.Info().Str("theme", v.String()).Msg("adopted system signal")
		e.report(entity.EventSignalAdopted, v.String(), map[string]string{"mode": string(e.pref.Mode)})
		e.mirrorRecord(e.pref)
		e.checkDegraded()
	}
}

func (e *ThemeEngine) onExternalWrite(p entity.Preference) {
	if e.state != StateResolved {
		if e.pending == nil || p.NewerThan(*e.pending) {
			held := p
			e.pending = &held
		}
		return
	}

	log := logging.FromContext(e.ctx)
	if !p.NewerThan(e.pref) {
		log.Debug().
			Time("incoming", p.LastUpdated).
			Time("local", e.pref.LastUpdated).
			Msg("ignoring stale external record")
		return
	}

	// Adopted as is: writing it back would bounce between instances.
	e.pref = p
	e.observe(p)
	e.publish()

	displayed := e.displayed()
	log.Info().Str("theme", displayed.String()).Str("mode", string(p.Mode)).Msg("adopted external record")
	e.report(entity.EventSyncAdopted, displayed.String(), map[string]string{"mode": string(p.Mode)})
}

func (e *ThemeEngine) displayed() entity.ThemeValue {
	if e.state != StateResolved {
		return e.snapshot.Load().Theme
	}
	return e.pref.Displayed(e.signal)
}

// stamp returns a write time strictly after every record this engine has held.
func (e *ThemeEngine) stamp() time.Time {
	t := e.now().UTC()
	if !t.After(e.lastStamp) {
		t = e.lastStamp.Add(time.Nanosecond)
	}
	e.lastStamp = t
	return t
}

func (e *ThemeEngine) observe(p entity.Preference) {
	if p.LastUpdated.After(e.lastStamp) {
		e.lastStamp = p.LastUpdated
	}
}

func (e *ThemeEngine) publish() {
	snap := ThemeSnapshot{
		Theme:           e.displayed(),
		SystemSignal:    e.signal,
		Loading:         e.state != StateResolved,
		State:           e.state,
		StoreDegraded:   e.store.Degraded(),
		SignalSupported: e.detector.Supported(),
	}
	if e.state == StateResolved {
		snap.Mode = e.pref.Mode
		snap.Preference = e.pref
	}
	e.snapshot.Store(&snap)

	if snap.State != StateResolved {
		return
	}
	if e.notified != nil && snap.sameDisplay(*e.notified) {
		return
	}
	e.notified = &snap

	e.subMu.Lock()
	callbacks := make([]func(ThemeSnapshot), 0, len(e.subscribers))
	for _, cb := range e.subscribers {
		callbacks = append(callbacks, cb)
	}
	e.subMu.Unlock()
	if len(callbacks) == 0 {
		return
	}

	_ = e.notifier.Post(func() {
		for _, cb := range callbacks {
			e.deliver(cb, snap)
		}
	})
}

func (e *ThemeEngine) deliver(cb func(ThemeSnapshot), snap ThemeSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(e.ctx).Error().Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	cb(snap)
}

func (e *ThemeEngine) checkDegraded() {
	if e.degradeReported || !e.store.Degraded() {
		return
	}
	e.degradeReported = true
	e.report(entity.EventStoreDegraded, "memory", nil)
}

func (e *ThemeEngine) report(kind entity.AnalyticsKind, value string, extra map[string]string) {
	if e.analytics == nil {
		return
	}

	fields := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		fields[k] = v
	}
	if e.instanceID != "" {
		fields["instance_id"] = e.instanceID
	}
	event := entity.NewAnalyticsEvent(kind, value, e.now().UTC(), fields)

	e.dispatch("analytics", func(ctx context.Context) error {
		return e.analytics.Record(ctx, event)
	})
}

func (e *ThemeEngine) mirrorRecord(p entity.Preference) {
	if e.mirror == nil {
		return
	}
	e.dispatch("mirror", func(ctx context.Context) error {
		return e.mirror.Mirror(ctx, p)
	})
}

// dispatch runs fn off the loop. Failures and panics are logged and dropped.
func (e *ThemeEngine) dispatch(name string, fn func(ctx context.Context) error) {
	e.sinks.Add(1)
	go func() {
		defer e.sinks.Done()
		log := logging.FromContext(e.ctx)
		defer func() {
			if r := recover(); r != nil {
				log.Debug().Interface("panic", r).Str("sink", name).Msg("sink panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(e.ctx, e.sinkTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Debug().Err(err).Str("sink", name).Msg("sink failed")
		}
	}()
}

func loopErr(err error) error {
	if errors.Is(err, mainloop.ErrStopped) {
		return entity.ErrEngineClosed
	}
	return err
}

// noSignal stands in for a missing detector.
type noSignal struct{}

func (noSignal) CurrentValue() entity.ThemeValue { return entity.ThemeUnknown }
func (noSignal) Supported() bool                 { return false }

func (noSignal) Subscribe(func(entity.ThemeValue)) port.Unsubscribe {
	return port.NopUnsubscribe()
}
