package limiters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestLoginThrottleBudget(t *testing.T) {
	_, client := newTestRedis(t)
	throttle := NewLoginThrottle(client, Config{Enabled: true, MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := throttle.Allow(ctx, "alice@example.com", "203.0.113.9")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("attempt %d denied inside budget", i+1)
		}
	}

	allowed, err := throttle.Allow(ctx, "alice@example.com", "203.0.113.9")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("attempt over budget was allowed")
	}

	// A different source IP has its own budget.
	allowed, err = throttle.Allow(ctx, "alice@example.com", "198.51.100.7")
	if err != nil {
		t.Fatalf("allow other ip: %v", err)
	}
	if !allowed {
		t.Fatal("other ip shares the exhausted budget")
	}
}

func TestLoginThrottleReset(t *testing.T) {
	_, client := newTestRedis(t)
	throttle := NewLoginThrottle(client, Config{Enabled: true, MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if allowed, _ := throttle.Allow(ctx, "alice@example.com", "203.0.113.9"); !allowed {
		t.Fatal("first attempt denied")
	}
	if allowed, _ := throttle.Allow(ctx, "alice@example.com", "203.0.113.9"); allowed {
		t.Fatal("second attempt allowed")
	}

	if err := throttle.Reset(ctx, "alice@example.com", "203.0.113.9"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if allowed, _ := throttle.Allow(ctx, "alice@example.com", "203.0.113.9"); !allowed {
		t.Fatal("attempt after reset denied")
	}
}

func TestWindowExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	throttle := NewResetThrottle(client, Config{Enabled: true, MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if allowed, _ := throttle.Allow(ctx, "alice@example.com"); !allowed {
		t.Fatal("first request denied")
	}
	if allowed, _ := throttle.Allow(ctx, "alice@example.com"); allowed {
		t.Fatal("second request allowed")
	}

	// The counter carries a TTL and self-resets when the window passes.
	mr.FastForward(2 * time.Minute)

	if allowed, _ := throttle.Allow(ctx, "alice@example.com"); !allowed {
		t.Fatal("request after window denied")
	}
}

func TestDisabledThrottle(t *testing.T) {
	_, client := newTestRedis(t)
	throttle := NewResendThrottle(client, Config{Enabled: false, MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := throttle.Allow(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatal("disabled throttle denied a request")
		}
	}
}

func TestThrottlePrefixesAreIsolated(t *testing.T) {
	_, client := newTestRedis(t)
	cfg := Config{Enabled: true, MaxAttempts: 1, Window: time.Minute}
	reset := NewResetThrottle(client, cfg)
	resend := NewResendThrottle(client, cfg)
	ctx := context.Background()

	if allowed, _ := reset.Allow(ctx, "alice@example.com"); !allowed {
		t.Fatal("reset request denied")
	}
	if allowed, _ := reset.Allow(ctx, "alice@example.com"); allowed {
		t.Fatal("reset budget not enforced")
	}

	// The resend throttle keys separately and still has budget.
	if allowed, _ := resend.Allow(ctx, "alice@example.com"); !allowed {
		t.Fatal("resend throttle shares the reset counter")
	}
}

func TestThrottleBackendError(t *testing.T) {
	mr, client := newTestRedis(t)
	throttle := NewLoginThrottle(client, Config{Enabled: true, MaxAttempts: 1, Window: time.Minute})

	mr.Close()

	if _, err := throttle.Allow(context.Background(), "alice@example.com", "203.0.113.9"); err == nil {
		t.Fatal("expected backend error")
	}
}
