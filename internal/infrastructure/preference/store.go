// Package preference implements the corruption-tolerant preference store on
// top of any raw backend.
package preference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// Store implements port.PreferenceStore.
//
// Read, Write and Clear never fail. Corrupted records are cleared and reported
// absent. When the backend is unavailable the store switches, for the rest of
// its lifetime, to a record kept in memory and reports Degraded.
type Store struct {
	// mu serializes backend access and guards memory. degraded stays
	// readable while a backend call holds mu.
	mu        sync.Mutex
	backend   port.PreferenceBackend
	degraded  atomic.Bool
	memory    *entity.Preference
	onDegrade func()
}

var _ port.PreferenceStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithDegradeHook registers fn to run once when the store degrades.
func WithDegradeHook(fn func()) Option {
	return func(s *Store) { s.onDegrade = fn }
}

// NewStore probes backend and returns a ready store. A failed probe degrades
// the store immediately; it is not an error.
func NewStore(ctx context.Context, backend port.PreferenceBackend, opts ...Option) *Store {
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}

	if backend == nil {
		s.degradeLocked(ctx, errors.New("no backend configured"))
		return s
	}
	if err := backend.Probe(ctx); err != nil {
		s.degradeLocked(ctx, err)
	}
	return s
}

// Backend returns the backend name, or "memory" once degraded.
func (s *Store) Backend() string {
	if s.degraded.Load() || s.backend == nil {
		return "memory"
	}
	return s.backend.Name()
}

// Degraded implements port.PreferenceStore.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

// Read implements port.PreferenceStore.
func (s *Store) Read(ctx context.Context) (entity.Preference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded.Load() {
		if s.memory == nil {
			return entity.Preference{}, false
		}
		return *s.memory, true
	}

	log := logging.FromContext(ctx)

	payload, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, entity.ErrNoRecord):
		return entity.Preference{}, false
	case errors.Is(err, entity.ErrStorageUnavailable):
		s.degradeLocked(ctx, err)
		return entity.Preference{}, false
	case err != nil:
		log.Warn().Err(err).Str("backend", s.backend.Name()).Msg("failed to load preference, treating as absent")
		return entity.Preference{}, false
	}

	pref, err := entity.DecodePreference(payload)
	if err != nil {
		log.Warn().Err(err).Str("backend", s.backend.Name()).Msg("discarding invalid stored preference")
		s.deleteLocked(ctx)
		return entity.Preference{}, false
	}

	return pref, true
}

// Write implements port.PreferenceStore.
func (s *Store) Write(ctx context.Context, pref entity.Preference) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.FromContext(ctx)

	payload, err := entity.EncodePreference(pref)
	if err != nil {
		// Only reachable with a record the engine never builds.
		log.Error().Err(err).Msg("refusing to write invalid preference")
		return
	}

	if !s.degraded.Load() {
		err = s.backend.Save(ctx, payload)
		switch {
		case err == nil:
			log.Debug().
				Str("backend", s.backend.Name()).
				Str("mode", string(pref.Mode)).
				Bool("user_set", pref.UserSet).
				Msg("preference written")
			return
		case errors.Is(err, entity.ErrStorageUnavailable):
			s.degradeLocked(ctx, err)
		default:
			log.Warn().Err(err).Str("backend", s.backend.Name()).Msg("failed to write preference")
			return
		}
	}

	p := pref
	s.memory = &p
}

// Clear implements port.PreferenceStore.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memory = nil
	if s.degraded.Load() {
		return
	}
	s.deleteLocked(ctx)
}

func (s *Store) deleteLocked(ctx context.Context) {
	if err := s.backend.Delete(ctx); err != nil {
		if errors.Is(err, entity.ErrStorageUnavailable) {
			s.degradeLocked(ctx, err)
			return
		}
		logging.FromContext(ctx).Warn().Err(err).Str("backend", s.backend.Name()).Msg("failed to clear preference")
	}
}

func (s *Store) degradeLocked(ctx context.Context, cause error) {
	if !s.degraded.CompareAndSwap(false, true) {
		return
	}

	name := "none"
	if s.backend != nil {
		name = s.backend.Name()
	}
	logging.FromContext(ctx).Warn().
		Err(cause).
		Str("backend", name).
		Msg("preference storage unavailable, keeping preference in memory only")

	if s.onDegrade != nil {
		s.onDegrade()
	}
}
