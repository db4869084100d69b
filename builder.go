package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/matchday/authcore/internal/audit"
	"github.com/matchday/authcore/internal/limiters"
	"github.com/matchday/authcore/internal/metrics"
	"github.com/matchday/authcore/lockout"
	"github.com/matchday/authcore/password"
	"github.com/matchday/authcore/session"
	"github.com/matchday/authcore/token"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	credentials CredentialStore
	mail        MailSender
	verifier    IdentityVerifier
	auditSink   AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore describes the withcredentialstore operation and its observable behavior.
//
// WithCredentialStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithMailSender describes the withmailsender operation and its observable behavior.
//
// WithMailSender does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailSender(sender MailSender) *Builder {
	b.mail = sender
	return b
}

// WithIdentityVerifier describes the withidentityverifier operation and its observable behavior.
//
// WithIdentityVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIdentityVerifier(verifier IdentityVerifier) *Builder {
	b.verifier = verifier
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Coordinator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	coordinator := &Coordinator{
		config:      cfg,
		credentials: b.credentials,
		mail:        b.mail,
		verifier:    b.verifier,
	}

	coordinator.sessions = session.NewRegistry(b.redis, cfg.Session.RedisPrefix)

	coordinator.lockouts = lockout.New(lockout.Config{
		Enabled:   cfg.Lockout.Enabled,
		Threshold: cfg.Lockout.Threshold,
		Window:    cfg.Lockout.Window,
	})

	coordinator.loginThrottle = limiters.NewLoginThrottle(b.redis, limiters.Config{
		Enabled:     cfg.LoginThrottle.Enabled,
		MaxAttempts: cfg.LoginThrottle.MaxAttempts,
		Window:      cfg.LoginThrottle.Window,
	})
	coordinator.resetThrottle = limiters.NewResetThrottle(b.redis, limiters.Config{
		Enabled:     cfg.Reset.MaxRequests > 0,
		MaxAttempts: cfg.Reset.MaxRequests,
		Window:      cfg.Reset.Window,
	})
	coordinator.resendThrottle = limiters.NewResendThrottle(b.redis, limiters.Config{
		Enabled:     cfg.Verification.ResendMaxRequests > 0,
		MaxAttempts: cfg.Verification.ResendMaxRequests,
		Window:      cfg.Verification.ResendWindow,
	})

	coordinator.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	coordinator.metrics = metrics.New(metrics.Config{Enabled: cfg.Metrics.Enabled})

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	coordinator.passwords = hasher
	coordinator.policy = password.Policy{
		MinLength:      cfg.Password.MinLength,
		RequireUpper:   cfg.Password.RequireUpper,
		RequireLower:   cfg.Password.RequireLower,
		RequireDigit:   cfg.Password.RequireDigit,
		RequireSpecial: cfg.Password.RequireSpecial,
	}

	issuer, err := token.NewIssuer(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}
	coordinator.tokens = issuer

	b.built = true

	return coordinator, nil
}
