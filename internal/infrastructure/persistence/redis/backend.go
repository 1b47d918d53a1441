// Package redis keeps the preference record in Redis and announces every
// change on a pub/sub channel so other instances can follow it.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

const (
	DefaultPrefix  = "themesync"
	DefaultKey     = "appearance"
	DefaultChannel = "themesync:preference"
)

// Options configures the backend.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Key      string
	Channel  string
	// Origin identifies this instance in published envelopes. Generated when empty.
	Origin string
}

// Envelope is what gets published after each save or delete.
// An empty Payload announces a deletion.
type Envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Backend implements port.PreferenceBackend on a single Redis key.
type Backend struct {
	rdb     goredis.UniversalClient
	key     string
	channel string
	origin  string
}

var _ port.PreferenceBackend = (*Backend)(nil)

// NewBackend creates a client for opts. The connection is checked by Probe.
func NewBackend(opts Options) *Backend {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})
	return NewBackendWithClient(rdb, opts)
}

// NewBackendWithClient wraps an existing client.
func NewBackendWithClient(rdb goredis.UniversalClient, opts Options) *Backend {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	channel := opts.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	origin := opts.Origin
	if origin == "" {
		origin = uuid.NewString()
	}
	return &Backend{
		rdb:     rdb,
		key:     prefix + ":" + key,
		channel: channel,
		origin:  origin,
	}
}

// Name implements port.PreferenceBackend.
func (*Backend) Name() string { return "redis" }

// Key returns the full Redis key.
func (b *Backend) Key() string { return b.key }

// Origin returns the id stamped on published envelopes.
func (b *Backend) Origin() string { return b.origin }

// Probe implements port.PreferenceBackend.
func (b *Backend) Probe(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", entity.ErrStorageUnavailable, err)
	}
	return nil
}

// Load implements port.PreferenceBackend.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	payload, err := b.rdb.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, entity.ErrNoRecord
		}
		return nil, storageErr("redis get", err)
	}
	return payload, nil
}

// Save implements port.PreferenceBackend.
func (b *Backend) Save(ctx context.Context, payload []byte) error {
	if err := b.rdb.Set(ctx, b.key, payload, 0).Err(); err != nil {
		return storageErr("redis set", err)
	}
	b.publish(ctx, payload)
	return nil
}

// Delete implements port.PreferenceBackend.
func (b *Backend) Delete(ctx context.Context) error {
	if err := b.rdb.Del(ctx, b.key).Err(); err != nil {
		return storageErr("redis del", err)
	}
	b.publish(ctx, nil)
	return nil
}

// storageErr marks failures that did not come back as a server reply as
// ErrStorageUnavailable. Cancellation is passed through unchanged.
func storageErr(op string, err error) error {
	var reply goredis.Error
	if errors.As(err, &reply) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", entity.ErrStorageUnavailable, op, err)
}

// Close releases the client.
func (b *Backend) Close() error {
	return b.rdb.Close()
}

func (b *Backend) publish(ctx context.Context, payload []byte) {
	raw, err := MarshalEnvelope(b.origin, payload)
	if err == nil {
		err = b.rdb.Publish(ctx, b.channel, raw).Err()
	}
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Str("channel", b.channel).Msg("redis publish failed")
	}
}

// MarshalEnvelope builds the published message for payload.
func MarshalEnvelope(origin string, payload []byte) ([]byte, error) {
	env := Envelope{Origin: origin}
	if len(payload) > 0 {
		if !json.Valid(payload) {
			return nil, fmt.Errorf("%w: payload is not JSON", entity.ErrSyncParse)
		}
		env.Payload = payload
	}
	return json.Marshal(env)
}

// ParseEnvelope decodes a published message. Origin filtering is left to the caller.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", entity.ErrSyncParse, err)
	}
	if env.Origin == "" {
		return Envelope{}, fmt.Errorf("%w: envelope has no origin", entity.ErrSyncParse)
	}
	return env, nil
}
