// Package mirror copies the local preference record to a remote account
// service. The mirror is write-only; nothing is read back.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// ErrClosed is returned by Mirror after Close.
var ErrClosed = errors.New("mirror closed")

const defaultTimeout = 5 * time.Second

// Config configures an HTTPMirror.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	Client   *http.Client
}

// HTTPMirror PUTs the latest record to Endpoint from a background worker.
// Records submitted while a request is in flight replace each other, so only
// the newest one is sent next.
type HTTPMirror struct {
	endpoint string
	token    string
	timeout  time.Duration
	client   *http.Client

	mu      sync.Mutex
	pending *entity.Preference
	wake    chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	stop      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ port.PreferenceMirror = (*HTTPMirror)(nil)

// NewHTTPMirror starts the worker.
func NewHTTPMirror(ctx context.Context, cfg Config) (*HTTPMirror, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("mirror endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	workerCtx, cancel := context.WithCancel(logging.WithComponent(ctx, "mirror"))
	m := &HTTPMirror{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		client:   cfg.Client,
		wake:     make(chan struct{}, 1),
		ctx:      workerCtx,
		cancel:   cancel,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.run()
	return m, nil
}

// Mirror implements port.PreferenceMirror. It never blocks on the network.
func (m *HTTPMirror) Mirror(_ context.Context, pref entity.Preference) error {
	if m.closed.Load() || m.ctx.Err() != nil {
		return ErrClosed
	}

	m.mu.Lock()
	m.pending = &pref
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the worker. A record not sent yet gets one last attempt
// bounded by the request timeout.
func (m *HTTPMirror) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.stop)
		<-m.done
		m.cancel()
	})
	return nil
}

func (m *HTTPMirror) run() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.stop:
			m.flush()
			return
		case <-m.wake:
			m.send(m.ctx)
		}
	}
}

func (m *HTTPMirror) flush() {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()
	m.send(ctx)
}

func (m *HTTPMirror) send(ctx context.Context) {
	m.mu.Lock()
	pref := m.pending
	m.pending = nil
	m.mu.Unlock()
	if pref == nil {
		return
	}

	if err := m.put(ctx, *pref); err != nil {
		logging.FromContext(m.ctx).Debug().Err(err).Msg("mirror update failed")
	}
}

func (m *HTTPMirror) put(ctx context.Context, pref entity.Preference) error {
	body, err := entity.EncodePreference(pref)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("put preference: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("put preference: unexpected status %d", resp.StatusCode)
	}
	return nil
}
