package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/matchday/authcore/internal"
	"github.com/matchday/authcore/session"
)

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// ForgotPassword always reports success so callers cannot probe which
// emails are registered. Internal faults are logged and swallowed.
func (c *Coordinator) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	if allowed, err := c.resetThrottle.Allow(ctx, email); err == nil && !allowed {
		return nil
	}

	account, err := c.credentials.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			log.Printf("authcore: password reset lookup failed: %v", err)
		}
		return nil
	}
	if !account.Active {
		return nil
	}

	resetToken, err := internal.NewOpaqueToken()
	if err != nil {
		log.Printf("authcore: reset token generation failed: %v", err)
		return nil
	}

	expiry := time.Now().UTC().Add(c.config.Reset.TokenTTL)
	if err := c.credentials.UpdateResetToken(ctx, account.ID, resetToken, &expiry); err != nil {
		log.Printf("authcore: reset token persist failed: %v", err)
		return nil
	}

	to, name := account.Email, account.DisplayName()
	c.dispatchMail("password reset", func(ctx context.Context) error {
		return c.mail.SendPasswordReset(ctx, to, name, resetToken)
	})

	c.metricInc(MetricPasswordResetRequested)
	c.emitAudit(ctx, AuditEvent{
		Action:      AuditActionPasswordResetRequested,
		ActorID:     account.ID,
		ActorName:   account.Email,
		EntityType:  auditEntityAccount,
		EntityID:    account.ID,
		EntityName:  account.Email,
		Description: "password reset requested",
		Success:     true,
	})

	return nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A successful reset consumes the token, clears the refresh token
// binding and terminates every active session of the account.
func (c *Coordinator) ResetPassword(ctx context.Context, email, resetToken, newPassword string) error {
	email = normalizeEmail(email)

	account, err := c.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.metricInc(MetricPasswordResetFailure)
			return ErrResetInvalid
		}
		return err
	}

	now := time.Now().UTC()
	if account.ResetToken == "" ||
		!internal.TokensEqual(resetToken, account.ResetToken) ||
		account.ResetTokenExpiresAt == nil ||
		!account.ResetTokenExpiresAt.After(now) {
		c.metricInc(MetricPasswordResetFailure)
		return ErrResetInvalid
	}

	if messages := c.policy.Validate(newPassword); len(messages) > 0 {
		c.metricInc(MetricPasswordResetFailure)
		return &ValidationError{Messages: messages}
	}

	hash, err := c.passwords.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := c.credentials.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return err
	}
	if err := c.credentials.UpdateResetToken(ctx, account.ID, "", nil); err != nil {
		return err
	}
	if err := c.credentials.UpdateRefreshToken(ctx, account.ID, "", nil); err != nil {
		return err
	}
	if _, err := c.sessions.TerminateAllForAccount(ctx, account.ID, session.ReasonPasswordReset, now); err != nil {
		return err
	}

	to, name := account.Email, account.DisplayName()
	c.dispatchMail("password changed", func(ctx context.Context) error {
		return c.mail.SendPasswordChanged(ctx, to, name)
	})

	c.metricInc(MetricPasswordResetSuccess)
	c.emitAudit(ctx, AuditEvent{
		Action:      AuditActionPasswordChanged,
		ActorID:     account.ID,
		ActorName:   account.Email,
		EntityType:  auditEntityAccount,
		EntityID:    account.ID,
		EntityName:  account.Email,
		Description: "password reset completed",
		Success:     true,
	})

	return nil
}
