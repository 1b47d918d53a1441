package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

var (
	// ErrQueueFull is returned by HTTPSink.Record when the event was dropped.
	ErrQueueFull = errors.New("analytics queue full")
	// ErrSinkClosed is returned by HTTPSink.Record after Close.
	ErrSinkClosed = errors.New("analytics sink closed")
)

const (
	defaultQueueSize     = 64
	defaultRatePerSecond = 5
	defaultTimeout       = 5 * time.Second
)

// HTTPSinkConfig configures an HTTPSink.
type HTTPSinkConfig struct {
	Endpoint      string
	QueueSize     int
	RatePerSecond float64
	Timeout       time.Duration
	Client        *http.Client
}

// HTTPSink POSTs events as JSON from a background worker. Record never
// blocks: events beyond the queue capacity are dropped.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	queue    chan entity.AnalyticsEvent

	ctx       context.Context
	cancel    context.CancelFunc
	stop      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ port.AnalyticsSink = (*HTTPSink)(nil)

// NewHTTPSink starts the delivery worker.
func NewHTTPSink(ctx context.Context, cfg HTTPSinkConfig) (*HTTPSink, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("analytics endpoint is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRatePerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	workerCtx, cancel := context.WithCancel(logging.WithComponent(ctx, "analytics-http"))
	s := &HTTPSink{
		endpoint: cfg.Endpoint,
		client:   cfg.Client,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		queue:    make(chan entity.AnalyticsEvent, cfg.QueueSize),
		ctx:      workerCtx,
		cancel:   cancel,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Record implements port.AnalyticsSink.
func (s *HTTPSink) Record(_ context.Context, event entity.AnalyticsEvent) error {
	if s.closed.Load() || s.ctx.Err() != nil {
		return ErrSinkClosed
	}

	select {
	case s.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the worker after delivering the events already queued. The
// drain is bounded by the request timeout as a whole.
func (s *HTTPSink) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		<-s.done
		s.cancel()
	})
	return nil
}

func (s *HTTPSink) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.stop:
			s.drain()
			return
		case event := <-s.queue:
			if err := s.limiter.Wait(s.ctx); err != nil {
				return
			}
			s.deliver(s.ctx, event)
		}
	}
}

func (s *HTTPSink) drain() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	for {
		select {
		case event := <-s.queue:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			s.deliver(ctx, event)
		default:
			return
		}
	}
}

func (s *HTTPSink) deliver(ctx context.Context, event entity.AnalyticsEvent) {
	if err := s.send(ctx, event); err != nil {
		logging.FromContext(s.ctx).Debug().Err(err).Str("event_kind", string(event.Kind)).Msg("analytics delivery failed")
	}
}

func (s *HTTPSink) send(ctx context.Context, event entity.AnalyticsEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("post event: unexpected status %d", resp.StatusCode)
	}
	return nil
}
