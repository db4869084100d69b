// Command authd runs the authentication service: REST surface, session
// registry, credential store migrations and the expiry sweeper.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	authcore "github.com/matchday/authcore"
	"github.com/matchday/authcore/httpapi"
	"github.com/matchday/authcore/mail"
	"github.com/matchday/authcore/metrics/export/prometheus"
	"github.com/matchday/authcore/postgres"
)

type config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"authcore"`

	JWTSecret      string        `env:"JWT_SECRET,required"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"authd"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"60m"`

	SessionLifetime    time.Duration `env:"SESSION_LIFETIME" envDefault:"168h"`
	RememberMeLifetime time.Duration `env:"REMEMBER_ME_LIFETIME" envDefault:"720h"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutWindow    time.Duration `env:"LOCKOUT_WINDOW" envDefault:"30m"`

	SentryDSN string `env:"SENTRY_DSN"`

	SMTPAddr     string `env:"SMTP_ADDR"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailBaseURL  string `env:"MAIL_BASE_URL" envDefault:"http://localhost:3000"`
}

func main() {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("authd: config: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Fatalf("authd: sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("authd: postgres: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("authd: migrate: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("authd: redis: %v", err)
	}

	coreConfig := coordinatorConfig(cfg)

	auditSink := postgres.NewAuditSink(pool)

	coordinator, err := authcore.New().
		WithConfig(coreConfig).
		WithRedis(redisClient).
		WithCredentialStore(postgres.NewStore(pool)).
		WithMailSender(mailSender(cfg)).
		WithAuditSink(auditSink).
		Build()
	if err != nil {
		log.Fatalf("authd: build coordinator: %v", err)
	}
	defer coordinator.Close()

	sweeper := authcore.NewSweeper(coordinator, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	router := httpapi.NewRouter(coordinator, httpapi.RouterConfig{AuditSink: auditSink})
	router.Handle("/metrics", prometheus.NewPrometheusExporter(coordinator).Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("authd: listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("authd: serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("authd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("authd: shutdown: %v", err)
	}
}

func coordinatorConfig(cfg config) authcore.Config {
	coreConfig := authcore.DefaultConfig()
	coreConfig.Token.AccessTTL = cfg.AccessTokenTTL
	coreConfig.Token.PrivateKey = []byte(cfg.JWTSecret)
	coreConfig.Token.Issuer = cfg.JWTIssuer
	coreConfig.Session.RedisPrefix = cfg.RedisPrefix
	coreConfig.Session.Lifetime = cfg.SessionLifetime
	coreConfig.Session.RememberMeLifetime = cfg.RememberMeLifetime
	coreConfig.Session.SweepInterval = cfg.SweepInterval
	coreConfig.Lockout.Threshold = cfg.LockoutThreshold
	coreConfig.Lockout.Window = cfg.LockoutWindow
	return coreConfig
}

func mailSender(cfg config) authcore.MailSender {
	if cfg.SMTPAddr == "" {
		log.Println("authd: SMTP_ADDR not set, mail goes to the log")
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		BaseURL:  cfg.MailBaseURL,
	})
}
