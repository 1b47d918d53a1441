package file

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// DefaultDebounce groups the bursts of events one atomic save produces.
const DefaultDebounce = 50 * time.Millisecond

// Channel implements port.SyncChannel by watching the record's directory.
type Channel struct {
	ctx      context.Context
	backend  *Backend
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu        sync.Mutex
	callbacks map[uint64]func(entity.Preference)
	nextID    uint64
	timer     *time.Timer
	last      [sha256.Size]byte
	delivered bool

	closeOnce sync.Once
	done      chan struct{}
}

var _ port.SyncChannel = (*Channel)(nil)

// NewChannel starts watching backend's file. The directory is created if needed;
// fsnotify cannot watch a path that does not exist yet.
func NewChannel(ctx context.Context, backend *Backend, debounce time.Duration) (*Channel, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	dir := filepath.Dir(backend.Path())
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	c := &Channel{
		ctx:       logging.WithComponent(ctx, "file-sync"),
		backend:   backend,
		debounce:  debounce,
		watcher:   watcher,
		callbacks: make(map[uint64]func(entity.Preference)),
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
		close(c.done)
		err = c.watcher.Close()

		c.mu.Lock()
		if c.timer != nil {
			c.timer.Stop()
		}
		c.callbacks = map[uint64]func(entity.Preference){}
		c.mu.Unlock()
	})
	return err
}

func (c *Channel) run() {
	log := logging.FromContext(c.ctx)
	target := c.backend.Path()

	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				log.Trace().Str("op", ev.Op.String()).Str("file", ev.Name).Msg("preference file event")
				c.schedule()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			log.Debug().Err(err).Msg("watcher error")
		}
	}
}

func (c *Channel) schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.deliver)
}

func (c *Channel) deliver() {
	log := logging.FromContext(c.ctx)

	data, err := os.ReadFile(c.backend.Path())
	if err != nil {
		// Deleted or mid-replace; the next event will retrigger.
		return
	}
	if c.backend.IsSelfWrite(data) {
		return
	}

	pref, err := entity.DecodePreference(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping malformed sync payload")
		return
	}

	sum := sha256.Sum256(data)
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

	select {
	case <-c.done:
		return
	default:
	}

	log.Debug().Str("mode", string(pref.Mode)).Time("last_updated", pref.LastUpdated).Msg("external preference write")
	for _, cb := range callbacks {
		cb(pref)
	}
}
