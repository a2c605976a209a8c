package ports

import (
	"context"
	"time"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// AccessEventRepository persists the gate audit trail.
type AccessEventRepository interface {
	// InsertEvent persists an event to the access_events audit collection.
	InsertEvent(ctx context.Context, event *domain.AccessEvent) error

	// ListRecent returns the newest events first, at most limit of them.
	ListRecent(ctx context.Context, limit int) ([]*domain.AccessEvent, error)
}

// AttemptCounter counts audited attempts per subject within a rolling window.
type AttemptCounter interface {
	Increment(ctx context.Context, subjectID string, window time.Duration) (int64, error)
}
