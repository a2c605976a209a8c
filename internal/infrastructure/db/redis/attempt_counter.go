package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts audited gate violations per subject in fixed
// windows. The window opens with the first attempt and the key expires when
// it closes.
// Key format: attempts:<subject_id>
type AttemptCounter struct {
	client *redis.Client
}

// NewAttemptCounter creates an AttemptCounter wrapping the given Redis client.
func NewAttemptCounter(client *redis.Client) *AttemptCounter {
	return &AttemptCounter{client: client}
}

// Increment records one attempt and returns the count inside the current
// window. INCR and EXPIRE NX run in one MULTI so a key never outlives its
// window, and later attempts never push the expiry back.
func (a *AttemptCounter) Increment(ctx context.Context, subjectID string, window time.Duration) (int64, error) {
	key := attemptsKey(subjectID)

	var incr *redis.IntCmd
	if _, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("attempt counter: %w", err)
	}
	return incr.Val(), nil
}

func attemptsKey(subjectID string) string {
	return "attempts:" + subjectID
}
