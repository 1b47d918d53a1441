package port

//go:generate mockgen -source=analytics.go -destination=mocks/mock_analytics.go -package=mock_port

import (
	"context"

	"github.com/bnema/themesync/internal/domain/entity"
)

// AnalyticsSink receives best-effort preference event reports.
// Errors are logged by the caller and otherwise ignored.
type AnalyticsSink interface {
	Record(ctx context.Context, event entity.AnalyticsEvent) error
}

// PreferenceMirror copies the local record to a remote account service.
// It is one-way: the mirror is never read back during resolution.
type PreferenceMirror interface {
	Mirror(ctx context.Context, pref entity.Preference) error
}
