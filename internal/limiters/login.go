package limiters

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle limits login attempts per identifier and source IP.
// It covers the gap the account lockout counter cannot: attempts
// against identifiers that do not resolve to an account.
type LoginThrottle struct {
	throttle
}

func NewLoginThrottle(redisClient redis.UniversalClient, cfg Config) *LoginThrottle {
	return &LoginThrottle{throttle{
		redis:  redisClient,
		prefix: "lt:",
		config: cfg,
	}}
}

// Allow reports whether another attempt for identifier from ip is permitted.
func (t *LoginThrottle) Allow(ctx context.Context, identifier, ip string) (bool, error) {
	return t.allow(ctx, identifier+"|"+ip)
}

// Reset clears the counter, e.g. after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, identifier, ip string) error {
	return t.reset(ctx, identifier+"|"+ip)
}
