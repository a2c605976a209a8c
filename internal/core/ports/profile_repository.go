package ports

import (
	"context"
	"time"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// ProfileRepository defines read access to persisted user profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.UserProfile, error)
}

// ProfileCache is a short-lived cache in front of ProfileRepository.
// Get returns (nil, nil) on a miss.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*domain.UserProfile, error)
	Set(ctx context.Context, profile *domain.UserProfile, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
