package limiters

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RequestThrottle limits mail-sending requests (password reset,
// verification resend) per identifier.
type RequestThrottle struct {
	throttle
}

func NewResetThrottle(redisClient redis.UniversalClient, cfg Config) *RequestThrottle {
	return &RequestThrottle{throttle{
		redis:  redisClient,
		prefix: "prt:",
		config: cfg,
	}}
}

func NewResendThrottle(redisClient redis.UniversalClient, cfg Config) *RequestThrottle {
	return &RequestThrottle{throttle{
		redis:  redisClient,
		prefix: "evr:",
		config: cfg,
	}}
}

// Allow reports whether another request for identifier is permitted.
func (t *RequestThrottle) Allow(ctx context.Context, identifier string) (bool, error) {
	return t.allow(ctx, identifier)
}

func (t *RequestThrottle) Reset(ctx context.Context, identifier string) error {
	return t.reset(ctx, identifier)
}
