// Package analytics provides the sinks preference events are reported to.
package analytics

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/domain/entity"
	"github.com/bnema/themesync/internal/logging"
)

// LogSink writes every event to the context logger.
type LogSink struct {
	level zerolog.Level
}

var _ port.AnalyticsSink = (*LogSink)(nil)

// NewLogSink creates a sink logging at level.
func NewLogSink(level zerolog.Level) *LogSink {
	return &LogSink{level: level}
}

// Record implements port.AnalyticsSink.
func (s *LogSink) Record(ctx context.Context, event entity.AnalyticsEvent) error {
	log := logging.FromContext(ctx)
	e := log.WithLevel(s.level).
		Str("event_kind", string(event.Kind)).
		Str("value", event.Value).
		Time("at", event.Timestamp)
	for k, v := range event.Context {
		e = e.Str(k, v)
	}
	e.Msg("preference event")
	return nil
}

// MultiSink fans an event out to several sinks.
type MultiSink struct {
	sinks []port.AnalyticsSink
}

var _ port.AnalyticsSink = (*MultiSink)(nil)

// Multi combines sinks, skipping nil entries.
func Multi(sinks ...port.AnalyticsSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of combined sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

// Record implements port.AnalyticsSink. Every sink is called even when an
// earlier one fails.
func (m *MultiSink) Record(ctx context.Context, event entity.AnalyticsEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
