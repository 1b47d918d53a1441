package analytics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
)

// PrometheusSink counts events by kind and value.
type PrometheusSink struct {
	events *prometheus.CounterVec
}

var _ port.AnalyticsSink = (*PrometheusSink)(nil)

// NewPrometheusSink registers themesync_events_total with reg. An already
// registered collector is reused.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "themesync",
			Name:      "events_total",
			Help:      "Theme preference events by kind and value.",
		},
		[]string{"kind", "value"},
	)

	if err := reg.Register(events); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		events = existing
	}
	return &PrometheusSink{events: events}, nil
}

// Record implements port.AnalyticsSink.
func (s *PrometheusSink) Record(_ context.Context, event entity.AnalyticsEvent) error {
	s.events.WithLabelValues(string(event.Kind), event.Value).Inc()
	return nil
}

// Events exposes the counter for tests and custom exporters.
func (s *PrometheusSink) Events() *prometheus.CounterVec { return s.events }
