package authcore

import (
	"errors"
	"time"

	"github.com/matchday/authcore/token"
)

// TokenConfig defines a public type used by authcore APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	AccessTTL     time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// SessionConfig defines a public type used by authcore APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix        string
	Lifetime           time.Duration
	RememberMeLifetime time.Duration
	SweepInterval      time.Duration
}

// LockoutConfig defines a public type used by authcore APIs.
//
// LockoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockoutConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration
}

// PasswordConfig defines a public type used by authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// VerificationConfig defines a public type used by authcore APIs.
//
// VerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationConfig struct {
	TokenTTL time.Duration

	ResendMaxRequests int
	ResendWindow      time.Duration
}

// ResetConfig defines a public type used by authcore APIs.
//
// ResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResetConfig struct {
	TokenTTL time.Duration

	MaxRequests int
	Window      time.Duration
}

// LoginThrottleConfig controls the per-identifier+IP attempt throttle
// that covers identifiers with no matching account.
type LoginThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// AccountConfig defines a public type used by authcore APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	DefaultRole string
}

// MailConfig defines a public type used by authcore APIs.
//
// MailConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MailConfig struct {
	DispatchTimeout time.Duration
}

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token         TokenConfig
	Session       SessionConfig
	Lockout       LockoutConfig
	Password      PasswordConfig
	Verification  VerificationConfig
	Reset         ResetConfig
	LoginThrottle LoginThrottleConfig
	Account       AccountConfig
	Mail          MailConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

// DefaultConfig returns the configuration the Builder starts from.
// Callers override the fields they care about and pass the result to
// WithConfig.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     60 * time.Minute,
			SigningMethod: string(token.MethodHS256),
		},
		Session: SessionConfig{
			RedisPrefix:        "authcore",
			Lifetime:           7 * 24 * time.Hour,
			RememberMeLifetime: 30 * 24 * time.Hour,
			SweepInterval:      time.Hour,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Threshold: 5,
			Window:    30 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,

			MinLength:      8,
			RequireUpper:   true,
			RequireLower:   true,
			RequireDigit:   true,
			RequireSpecial: true,
		},
		Verification: VerificationConfig{
			TokenTTL:          24 * time.Hour,
			ResendMaxRequests: 3,
			ResendWindow:      time.Hour,
		},
		Reset: ResetConfig{
			TokenTTL:    time.Hour,
			MaxRequests: 3,
			Window:      time.Hour,
		},
		LoginThrottle: LoginThrottleConfig{
			Enabled:     true,
			MaxAttempts: 20,
			Window:      15 * time.Minute,
		},
		Account: AccountConfig{
			DefaultRole: "user",
		},
		Mail: MailConfig{
			DispatchTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("token access TTL must be positive")
	}
	if c.Token.SigningMethod == "" {
		return errors.New("token signing method required")
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("session lifetime must be positive")
	}
	if c.Session.RememberMeLifetime < c.Session.Lifetime {
		return errors.New("remember-me lifetime must be >= session lifetime")
	}
	if c.Lockout.Enabled {
		if c.Lockout.Threshold <= 0 {
			return errors.New("lockout threshold must be positive")
		}
		if c.Lockout.Window <= 0 {
			return errors.New("lockout window must be positive")
		}
	}
	if c.Verification.TokenTTL <= 0 {
		return errors.New("verification token TTL must be positive")
	}
	if c.Reset.TokenTTL <= 0 {
		return errors.New("reset token TTL must be positive")
	}
	if c.Account.DefaultRole == "" {
		return errors.New("default account role required")
	}
	if c.Mail.DispatchTimeout <= 0 {
		return errors.New("mail dispatch timeout must be positive")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
