package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

// ProfileMetrics receives profile lookup outcomes. Nil-safe via nopProfileMetrics.
type ProfileMetrics interface {
	CacheResult(result string)
	FetchResult(result string)
}

// ProfileService serves user profiles from a short-lived cache in front of
// the profile repository. Concurrent misses for one subject share a single
// repository read.
type ProfileService struct {
	repo    ports.ProfileRepository
	cache   ports.ProfileCache
	ttl     time.Duration
	group   singleflight.Group
	metrics ProfileMetrics
	log     zerolog.Logger
}

// NewProfileService returns a ProfileService. cache may be nil.
func NewProfileService(
	repo ports.ProfileRepository,
	cache ports.ProfileCache,
	ttl time.Duration,
	metrics ProfileMetrics,
	log zerolog.Logger,
) *ProfileService {
	if metrics == nil {
		metrics = nopProfileMetrics{}
	}
	return &ProfileService{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		log:     log,
	}
}

// GetProfile returns the profile of subjectID.
func (s *ProfileService) GetProfile(ctx context.Context, subjectID string) (*domain.UserProfile, error) {
	if subjectID == "" {
		return nil, domain.ErrProfileNotFound
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, subjectID)
		switch {
		case err != nil:
			s.metrics.CacheResult("error")
			s.log.Warn().Err(err).Str("subject_id", subjectID).Msg("profile cache read failed, falling back to repository")
		case cached != nil:
			s.metrics.CacheResult("hit")
			return cached, nil
		default:
			s.metrics.CacheResult("miss")
		}
	}

	v, err, _ := s.group.Do(subjectID, func() (any, error) {
		return s.load(ctx, subjectID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.UserProfile), nil
}

func (s *ProfileService) load(ctx context.Context, subjectID string) (*domain.UserProfile, error) {
	profile, err := s.repo.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			s.metrics.FetchResult("not_found")
			return nil, err
		}
		s.metrics.FetchResult("error")
		return nil, fmt.Errorf("get profile: %w", err)
	}
	s.metrics.FetchResult("ok")

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, profile, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("subject_id", subjectID).Msg("failed to cache profile")
		}
	}
	return profile, nil
}

// Invalidate drops the cached profile of subjectID.
func (s *ProfileService) Invalidate(ctx context.Context, subjectID string) error {
	s.group.Forget(subjectID)
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, subjectID); err != nil {
		return fmt.Errorf("invalidate profile: %w", err)
	}
	return nil
}

type nopProfileMetrics struct{}

func (nopProfileMetrics) CacheResult(string) {}
func (nopProfileMetrics) FetchResult(string) {}
