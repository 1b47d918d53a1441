package redis

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// Channel implements port.SyncChannel over Redis pub/sub.
type Channel struct {
	ctx     context.Context
	backend *Backend
	sub     *goredis.PubSub

	mu        sync.Mutex
	callbacks map[uint64]func(entity.Preference)
	nextID    uint64

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

var _ port.SyncChannel = (*Channel)(nil)

// NewChannel subscribes to backend's channel and waits for the subscription
// to be confirmed.
func NewChannel(ctx context.Context, backend *Backend) (*Channel, error) {
	subCtx, cancel := context.WithCancel(logging.WithComponent(ctx, "redis-sync"))

	sub := backend.rdb.Subscribe(subCtx, backend.channel)
	if _, err := sub.Receive(subCtx); err != nil {
		_ = sub.Close()
		cancel()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	c := &Channel{
		ctx:       subCtx,
		backend:   backend,
		sub:       sub,
		callbacks: make(map[uint64]func(entity.Preference)),
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
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.sub.Close()
		<-c.done
	})
	return err
}

func (c *Channel) run() {
	defer close(c.done)

	msgs := c.sub.Channel()
	for {
		select {
		case <-c.ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok || m == nil {
				return
			}
			c.handle([]byte(m.Payload))
		}
	}
}

func (c *Channel) handle(raw []byte) {
	pref, ok := c.decode(raw)
	if !ok {
		return
	}

	c.mu.Lock()
	callbacks := make([]func(entity.Preference), 0, len(c.callbacks))
	for _, cb := range c.callbacks {
		callbacks = append(callbacks, cb)
	}
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(pref)
	}
}

// decode turns a pub/sub message into a record. Own envelopes, deletions and
// malformed payloads are dropped.
func (c *Channel) decode(raw []byte) (entity.Preference, bool) {
	log := logging.FromContext(c.ctx)

	env, err := ParseEnvelope(raw)
	if err != nil {
		log.Debug().Err(err).Msg("dropping malformed envelope")
		return entity.Preference{}, false
	}
	if env.Origin == c.backend.origin || len(env.Payload) == 0 {
		return entity.Preference{}, false
	}

	pref, err := entity.DecodePreference(env.Payload)
	if err != nil {
		log.Debug().Err(err).Str("origin", env.Origin).Msg("dropping malformed sync payload")
		return entity.Preference{}, false
	}
	return pref, true
}
