package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/matchday/authcore/internal"
)

// VerifyEmail describes the verifyemail operation and its observable behavior.
//
// VerifyEmail may return an error when input validation, dependency calls, or security checks fail.
// VerifyEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) VerifyEmail(ctx context.Context, email, verificationToken string) error {
	email = normalizeEmail(email)

	account, err := c.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.metricInc(MetricEmailVerificationFailure)
			return ErrVerificationInvalid
		}
		return err
	}

	if account.EmailConfirmed {
		return NewValidationError("Email is already confirmed")
	}

	now := time.Now().UTC()
	if account.VerificationToken == "" ||
		!internal.TokensEqual(verificationToken, account.VerificationToken) ||
		account.VerificationTokenExpiresAt == nil ||
		!account.VerificationTokenExpiresAt.After(now) {
		c.metricInc(MetricEmailVerificationFailure)
		return ErrVerificationInvalid
	}

	// Confirming clears the token; it is single use.
	if err := c.credentials.UpdateVerification(ctx, account.ID, true, "", nil); err != nil {
		return err
	}

	to, name := account.Email, account.DisplayName()
	c.dispatchMail("welcome", func(ctx context.Context) error {
		return c.mail.SendWelcome(ctx, to, name)
	})

	c.metricInc(MetricEmailVerified)
	c.emitAudit(ctx, AuditEvent{
		Action:      AuditActionEmailConfirmed,
		ActorID:     account.ID,
		ActorName:   account.Email,
		EntityType:  auditEntityAccount,
		EntityID:    account.ID,
		EntityName:  account.Email,
		Description: "email address confirmed",
		Success:     true,
	})

	return nil
}

// ResendVerificationEmail describes the resendverificationemail operation and its observable behavior.
//
// ResendVerificationEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Always reports success so callers cannot probe which emails are
// registered or confirmed.
func (c *Coordinator) ResendVerificationEmail(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	if allowed, err := c.resendThrottle.Allow(ctx, email); err == nil && !allowed {
		return nil
	}

	account, err := c.credentials.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	if !account.Active || account.EmailConfirmed {
		return nil
	}

	verificationToken, err := internal.NewOpaqueToken()
	if err != nil {
		return nil
	}

	expiry := time.Now().UTC().Add(c.config.Verification.TokenTTL)
	if err := c.credentials.UpdateVerification(ctx, account.ID, false, verificationToken, &expiry); err != nil {
		return nil
	}

	to, name := account.Email, account.DisplayName()
	c.dispatchMail("verification", func(ctx context.Context) error {
		return c.mail.SendVerification(ctx, to, name, verificationToken)
	})

	c.metricInc(MetricVerificationEmailSent)
	return nil
}
