// Package colorscheme reads the OS light/dark appearance signal.
package colorscheme

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 5 * time.Second

// Watcher is implemented by detectors that can push change hints.
type Watcher interface {
	Watch(ctx context.Context, changed func()) error
}

// SignalOption configures a SignalDetector.
type SignalOption func(*SignalDetector)

// WithPollInterval sets how often detectors are re-read. Zero disables polling.
func WithPollInterval(d time.Duration) SignalOption {
	return func(s *SignalDetector) { s.pollInterval = d }
}

// WithWatchers enables or disables detector Watch loops.
func WithWatchers(enabled bool) SignalOption {
	return func(s *SignalDetector) { s.watch = enabled }
}

// SignalDetector implements port.SystemSignalDetector on top of a prioritized
// set of ColorSchemeDetectors.
type SignalDetector struct {
	ctx          context.Context
	detectors    []port.ColorSchemeDetector
	supported    bool
	pollInterval time.Duration
	watch        bool

	// refreshMu serializes detection and the notifications it causes.
	refreshMu sync.Mutex

	mu        sync.Mutex
	current   entity.ThemeValue
	source    string
	callbacks map[uint64]func(entity.ThemeValue)
	nextID    uint64

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ port.SystemSignalDetector = (*SignalDetector)(nil)

// NewSignalDetector keeps the available detectors, sorted by priority, and
// performs the initial read.
func NewSignalDetector(ctx context.Context, detectors []port.ColorSchemeDetector, opts ...SignalOption) *SignalDetector {
	s := &SignalDetector{
		ctx:          logging.WithComponent(ctx, "signal"),
		pollInterval: DefaultPollInterval,
		watch:        true,
		callbacks:    make(map[uint64]func(entity.ThemeValue)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, d := range detectors {
		if d != nil && d.Available() {
			s.detectors = append(s.detectors, d)
		}
	}
	sort.SliceStable(s.detectors, func(i, j int) bool {
		return s.detectors[i].Priority() > s.detectors[j].Priority()
	})
	s.supported = len(s.detectors) > 0

	if s.supported {
		if v, source, ok := s.detect(); ok {
			s.current, s.source = v, source
		}
	}

	logging.FromContext(s.ctx).Debug().
		Bool("supported", s.supported).
		Int("detectors", len(s.detectors)).
		Str("value", s.current.String()).
		Str("source", s.source).
		Msg("system signal initialized")

	return s
}

// Supported implements port.SystemSignalDetector.
func (s *SignalDetector) Supported() bool { return s.supported }

// CurrentValue implements port.SystemSignalDetector.
func (s *SignalDetector) CurrentValue() entity.ThemeValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Source returns the name of the detector that produced the current value.
func (s *SignalDetector) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Subscribe implements port.SystemSignalDetector.
func (s *SignalDetector) Subscribe(callback func(entity.ThemeValue)) port.Unsubscribe {
	if !s.supported || callback == nil {
		return port.NopUnsubscribe()
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = callback
	s.mu.Unlock()

	return port.OnceUnsubscribe(func() {
		s.mu.Lock()
		delete(s.callbacks, id)
		s.mu.Unlock()
	})
}

// Refresh re-reads the detectors and notifies subscribers when the value
// changed. A failed read keeps the previous value.
func (s *SignalDetector) Refresh() entity.ThemeValue {
	if !s.supported {
		return entity.ThemeUnknown
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	v, source, ok := s.detect()

	s.mu.Lock()
	if !ok || v == s.current {
		current := s.current
		s.mu.Unlock()
		return current
	}
	previous := s.current
	s.current, s.source = v, source
	callbacks := make([]func(entity.ThemeValue), 0, len(s.callbacks))
	for _, cb := range s.callbacks {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	logging.FromContext(s.ctx).Debug().
		Str("from", previous.String()).
		Str("to", v.String()).
		Str("source", source).
		Msg("system signal changed")

	for _, cb := range callbacks {
		cb(v)
	}
	return v
}

// Start begins polling and watching. It is a no-op when unsupported or
// already started.
func (s *SignalDetector) Start(ctx context.Context) {
	if !s.supported {
		return
	}
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()

		if s.pollInterval > 0 {
			s.wg.Add(1)
			go s.poll(runCtx)
		}
		if s.watch {
			for _, d := range s.detectors {
				w, ok := d.(Watcher)
				if !ok {
					continue
				}
				s.wg.Add(1)
				go s.runWatcher(runCtx, d.Name(), w)
			}
		}
	})
}

// Close stops background work. Subscriptions stay registered but receive
// nothing further.
func (s *SignalDetector) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
	})
	return nil
}

func (s *SignalDetector) detect() (entity.ThemeValue, string, bool) {
	for _, d := range s.detectors {
		if prefersDark, ok := d.Detect(); ok {
			return entity.ThemeFromDark(prefersDark), d.Name(), true
		}
	}
	return entity.ThemeUnknown, "", false
}

func (s *SignalDetector) poll(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}

func (s *SignalDetector) runWatcher(ctx context.Context, name string, w Watcher) {
	defer s.wg.Done()

	err := w.Watch(ctx, func() { s.Refresh() })
	if err != nil && ctx.Err() == nil {
		logging.FromContext(s.ctx).Debug().Err(err).Str("detector", name).Msg("watcher stopped, polling only")
	}
}
