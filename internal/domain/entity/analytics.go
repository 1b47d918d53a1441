package entity

import "time"

// AnalyticsKind identifies a reported preference event.
type AnalyticsKind string

const (
	EventResolved      AnalyticsKind = "resolved"
	EventSystemAdopted AnalyticsKind = "system_adopted"
	EventThemeSet      AnalyticsKind = "theme_set"
	EventThemeToggled  AnalyticsKind = "theme_toggled"
	EventFollowSystem  AnalyticsKind = "follow_system"
	EventSignalAdopted AnalyticsKind = "signal_adopted"
	EventSignalIgnored AnalyticsKind = "signal_ignored"
	EventSyncAdopted   AnalyticsKind = "sync_adopted"
	EventReset         AnalyticsKind = "reset"
	EventStoreDegraded AnalyticsKind = "store_degraded"
)

// AnalyticsEvent is one discrete report handed to an analytics sink.
type AnalyticsEvent struct {
	Kind      AnalyticsKind     `json:"event_kind"`
	Value     string            `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Context   map[string]string `json:"context,omitempty"`
}

// NewAnalyticsEvent builds an event stamped at.
func NewAnalyticsEvent(kind AnalyticsKind, value string, at time.Time, context map[string]string) AnalyticsEvent {
	return AnalyticsEvent{Kind: kind, Value: value, Timestamp: at, Context: context}
}
