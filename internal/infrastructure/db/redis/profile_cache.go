package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

const tracerName = "redis"

// ProfileCache stores serialized user profiles.
// Key format: profile:<subject_id>
type ProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a ProfileCache wrapping the given Redis client.
func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

// Get returns the cached profile, or nil on a miss. An entry that does not
// decode is reported as an error; the next Set overwrites it.
func (c *ProfileCache) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", profileKey(id))),
	)
	defer span.End()

	raw, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.String("cache.result", "miss"))
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("profile cache get: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		span.SetAttributes(attribute.String("cache.result", "corrupt"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt cache entry")
		return nil, fmt.Errorf("profile cache decode %s: %w", profileKey(id), err)
	}
	span.SetAttributes(attribute.String("cache.result", "hit"))
	return &profile, nil
}

// Set caches profile for ttl.
func (c *ProfileCache) Set(ctx context.Context, profile *domain.UserProfile, ttl time.Duration) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", profileKey(profile.ID)),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(profile.ID), raw, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("profile cache set: %w", err)
	}
	return nil
}

// Delete removes the cached profile of id. Deleting a missing key is not an error.
func (c *ProfileCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, profileKey(id)).Err(); err != nil {
		return fmt.Errorf("profile cache delete: %w", err)
	}
	return nil
}

func profileKey(id string) string {
	return "profile:" + id
}
