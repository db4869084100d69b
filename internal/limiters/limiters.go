package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds configuration shared by the request throttles.
type Config struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

var (
	// ErrThrottleUnavailable indicates the throttle backend is unreachable.
	ErrThrottleUnavailable = errors.New("throttle backend unavailable")
)

// throttle counts attempts per key inside a rolling window.
type throttle struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

func (t *throttle) key(id string) string {
	return t.prefix + id
}

// allow increments the attempt counter for id and reports whether the
// attempt is within budget.
func (t *throttle) allow(ctx context.Context, id string) (bool, error) {
	if !t.config.Enabled || id == "" {
		return true, nil
	}

	count, err := t.redis.Incr(ctx, t.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}

	if count == 1 && t.config.Window > 0 {
		// TTL on first attempt makes the counter self-reset, giving a
		// rolling window without a cleanup job.
		if err := t.redis.Expire(ctx, t.key(id), t.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
		}
	}

	return count <= int64(t.config.MaxAttempts), nil
}

func (t *throttle) reset(ctx context.Context, id string) error {
	if !t.config.Enabled || id == "" {
		return nil
	}

	if err := t.redis.Del(ctx, t.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return nil
}
