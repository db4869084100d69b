package authcore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/matchday/authcore/internal/audit"
	"github.com/matchday/authcore/internal/limiters"
	"github.com/matchday/authcore/internal/metrics"
	"github.com/matchday/authcore/lockout"
	"github.com/matchday/authcore/password"
	"github.com/matchday/authcore/session"
	"github.com/matchday/authcore/token"
)

// Coordinator defines a public type used by authcore APIs.
//
// Coordinator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Coordinator struct {
	config Config

	credentials CredentialStore
	sessions    *session.Registry
	tokens      *token.Issuer
	passwords   *password.Hasher
	policy      password.Policy
	lockouts    *lockout.Policy
	mail        MailSender
	verifier    IdentityVerifier

	loginThrottle  *limiters.LoginThrottle
	resetThrottle  *limiters.RequestThrottle
	resendThrottle *limiters.RequestThrottle

	audit   *audit.Dispatcher
	metrics *metrics.Metrics
}

// ValidateAccessToken verifies an access token's signature and
// registered claims without touching storage. Pure CPU, safe on every
// request path.
func (c *Coordinator) ValidateAccessToken(tokenStr string) (*token.Claims, error) {
	claims, err := c.tokens.ValidateAccess(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) CurrentUser(ctx context.Context, accountID string) (*Account, error) {
	account, err := c.credentials.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Sessions exposes the session registry for embedding applications
// (session listings, admin termination).
func (c *Coordinator) Sessions() *session.Registry {
	return c.sessions
}

// Close stops background dispatching and drains buffered audit events.
func (c *Coordinator) Close() {
	c.audit.Close()
}

// issueSession mints an access/refresh token pair, persists the session
// and binds the refresh token to the account row.
func (c *Coordinator) issueSession(ctx context.Context, account *Account, lifetime time.Duration) (*AuthResponse, error) {
	access, accessExpiry, tokenID, err := c.tokens.IssueAccess(account.ID, account.Email, account.Roles)
	if err != nil {
		return nil, err
	}

	refresh, err := c.tokens.IssueRefresh()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &session.Session{
		ID:               session.NewID(),
		AccountID:        account.ID,
		RefreshTokenHash: session.HashRefreshToken(refresh),
		TokenID:          tokenID,
		StartedAt:        now,
		ExpiresAt:        now.Add(lifetime),
		LastActivityAt:   now,
		Active:           true,
		IP:               clientIPFromContext(ctx),
		UserAgent:        userAgentFromContext(ctx),
		Device:           deviceFromContext(ctx),
	}

	if err := c.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	refreshExpiry := sess.ExpiresAt
	if err := c.credentials.UpdateRefreshToken(ctx, account.ID, refresh, &refreshExpiry); err != nil {
		return nil, err
	}

	c.metricInc(MetricSessionCreated)

	return &AuthResponse{
		AccountID:            account.ID,
		Email:                account.Email,
		FirstName:            account.FirstName,
		LastName:             account.LastName,
		FullName:             account.DisplayName(),
		Roles:                account.Roles,
		EmailConfirmed:       account.EmailConfirmed,
		AccessToken:          access,
		AccessTokenExpiresAt: accessExpiry,
		RefreshToken:         refresh,
		SessionID:            sess.ID,
	}, nil
}

func (c *Coordinator) sessionLifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return c.config.Session.RememberMeLifetime
	}
	return c.config.Session.Lifetime
}

// dispatchMail sends account mail on a detached goroutine, bounded by
// the configured timeout. Delivery failures are logged and swallowed.
func (c *Coordinator) dispatchMail(kind string, send func(ctx context.Context) error) {
	if c.mail == nil {
		return
	}
	timeout := c.config.Mail.DispatchTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Printf("authcore: %s mail dispatch failed: %v", kind, err)
		}
	}()
}

func (c *Coordinator) lockoutState(account *Account) lockout.State {
	return lockout.State{
		FailedCount: account.FailedLoginCount,
		LockoutEnd:  account.LockoutEnd,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
