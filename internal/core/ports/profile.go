package ports

import (
	"context"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// ProfileFetcher is the profile-fetch collaborator used by the session
// materializer. It is idempotent and safe to retry once.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, subjectID string) (*domain.UserProfile, error)
}

// ProfileInvalidator drops any cached profile state for a subject.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, subjectID string) error
}
