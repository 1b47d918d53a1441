package memory

import (
	"context"
	"sync"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// Channel delivers saves made by sibling backends on the same Hub.
type Channel struct {
	ctx     context.Context
	backend *Backend
	mu      sync.Mutex
	unsubs  []port.Unsubscribe
}

var _ port.SyncChannel = (*Channel)(nil)

// NewChannel observes the hub of backend, ignoring backend's own saves.
func NewChannel(ctx context.Context, backend *Backend) *Channel {
	return &Channel{ctx: ctx, backend: backend}
}

// OnExternalWrite implements port.SyncChannel.
func (c *Channel) OnExternalWrite(callback func(entity.Preference)) port.Unsubscribe {
	unsub := port.OnceUnsubscribe(c.backend.hub.subscribe(c.backend, func(payload []byte) {
		pref, err := entity.DecodePreference(payload)
		if err != nil {
			logging.FromContext(c.ctx).Debug().Err(err).Msg("dropping malformed sync payload")
			return
		}
		callback(pref)
	}))

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsub)
	c.mu.Unlock()
	return unsub
}

// Close implements port.SyncChannel.
func (c *Channel) Close() error {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	return nil
}
