// Package memory provides a process-local preference backend. Backends sharing
// a Hub behave like separate instances sharing one durable key.
package memory

import (
	"context"
	"sync"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
)

// Hub holds one payload shared by every attached backend.
type Hub struct {
	mu      sync.Mutex
	payload []byte
	subs    map[*subscription]struct{}
}

type subscription struct {
	owner *Backend
	fn    func([]byte)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

func (h *Hub) subscribe(owner *Backend, fn func([]byte)) func() {
	sub := &subscription{owner: owner, fn: fn}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
}

func (h *Hub) store(from *Backend, payload []byte) {
	h.mu.Lock()
	h.payload = payload
	targets := make([]*subscription, 0, len(h.subs))
	for sub := range h.subs {
		if sub.owner != from {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.fn(clone(payload))
	}
}

// Backend implements port.PreferenceBackend in memory.
type Backend struct {
	hub *Hub
}

var _ port.PreferenceBackend = (*Backend)(nil)

// NewBackend attaches a backend to hub. A nil hub gives the backend a private one.
func NewBackend(hub *Hub) *Backend {
	if hub == nil {
		hub = NewHub()
	}
	return &Backend{hub: hub}
}

// Name implements port.PreferenceBackend.
func (*Backend) Name() string { return "memory" }

// Probe implements port.PreferenceBackend.
func (*Backend) Probe(context.Context) error { return nil }

// Load implements port.PreferenceBackend.
func (b *Backend) Load(context.Context) ([]byte, error) {
	b.hub.mu.Lock()
	defer b.hub.mu.Unlock()
	if b.hub.payload == nil {
		return nil, entity.ErrNoRecord
	}
	return clone(b.hub.payload), nil
}

// Save implements port.PreferenceBackend.
func (b *Backend) Save(_ context.Context, payload []byte) error {
	b.hub.store(b, clone(payload))
	return nil
}

// Delete implements port.PreferenceBackend.
func (b *Backend) Delete(context.Context) error {
	b.hub.mu.Lock()
	b.hub.payload = nil
	b.hub.mu.Unlock()
	return nil
}

// Raw overwrites the shared payload without notifying anyone. Test helper for
// simulating foreign or corrupted writes.
func (b *Backend) Raw(payload []byte) {
	b.hub.mu.Lock()
	b.hub.payload = clone(payload)
	b.hub.mu.Unlock()
}

func clone(p []byte) []byte {
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
