package sqlite

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"time"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// DefaultPollInterval is how often the channel checks for foreign commits.
const DefaultPollInterval = 500 * time.Millisecond

// Channel implements port.SyncChannel by polling PRAGMA data_version.
type Channel struct {
	ctx      context.Context
	backend  *Backend
	interval time.Duration

	mu        sync.Mutex
	callbacks map[uint64]func(entity.Preference)
	nextID    uint64
	version   int64
	last      [sha256.Size]byte
	delivered bool

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

var _ port.SyncChannel = (*Channel)(nil)

// NewChannel starts polling backend's database.
func NewChannel(ctx context.Context, backend *Backend, interval time.Duration) (*Channel, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	version, err := backend.DataVersion(ctx)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(logging.WithComponent(ctx, "sqlite-sync"))
	c := &Channel{
		ctx:       pollCtx,
		backend:   backend,
		interval:  interval,
		callbacks: make(map[uint64]func(entity.Preference)),
		version:   version,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// OnExternalWrite implements port.SyncChannel.
func (c *Channel) OnExternalWrite(callback func(entity.Preference)) port.Unsubscribe {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.callbacks[id] = callback
	c.mu.Unlock()

	return port.OnceUnsubscribe(func() {
		c.mu.Lock()
		delete(c.callbacks, id)
		c.mu.Unlock()
	})
}

// Close implements port.SyncChannel.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
	})
	return nil
}

func (c *Channel) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.poll()
		}
	}
}

func (c *Channel) poll() {
	log := logging.FromContext(c.ctx)

	version, err := c.backend.DataVersion(c.ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Debug().Err(err).Msg("data_version poll failed")
		}
		return
	}

	c.mu.Lock()
	changed := version != c.version
	c.version = version
	c.mu.Unlock()
	if !changed {
		return
	}

	payload, err := c.backend.Load(c.ctx)
	if err != nil {
		// Deleted by another instance, or a transient failure.
		return
	}
	if c.backend.IsSelfWrite(payload) {
		return
	}

	pref, err := entity.DecodePreference(payload)
	if err != nil {
		log.Debug().Err(err).Msg("dropping malformed sync payload")
		return
	}

	sum := sha256.Sum256(payload)
	c.mu.Lock()
	if c.delivered && sum == c.last {
		c.mu.Unlock()
		return
	}
	c.last = sum
	c.delivered = true
	callbacks := make([]func(entity.Preference), 0, len(c.callbacks))
	for _, cb := range c.callbacks {
		callbacks = append(callbacks, cb)
	}
	c.mu.Unlock()

	log.Debug().Str("mode", string(pref.Mode)).Time("last_updated", pref.LastUpdated).Msg("external preference write")
	for _, cb := range callbacks {
		cb(pref)
	}
}
