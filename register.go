package authcore

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matchday/authcore/internal"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	var messages []string
	if email == "" {
		messages = append(messages, "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		messages = append(messages, "Email address is invalid")
	}
	if req.Password != req.ConfirmPassword {
		messages = append(messages, "Passwords do not match")
	}
	messages = append(messages, c.policy.Validate(req.Password)...)
	if len(messages) > 0 {
		c.metricInc(MetricRegisterRejected)
		return nil, &ValidationError{Messages: messages}
	}

	// Pre-check for a friendlier error; the store's unique constraint
	// still backstops the race.
	if _, err := c.credentials.GetByEmail(ctx, email); err == nil {
		c.metricInc(MetricRegisterRejected)
		return nil, NewValidationError("Email is already registered")
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	hash, err := c.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	verificationToken, err := internal.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	verificationExpiry := now.Add(c.config.Verification.TokenTTL)

	account := &Account{
		ID:                         uuid.NewString(),
		Email:                      email,
		PasswordHash:               hash,
		FirstName:                  strings.TrimSpace(req.FirstName),
		LastName:                   strings.TrimSpace(req.LastName),
		Roles:                      []string{c.config.Account.DefaultRole},
		Active:                     true,
		VerificationToken:          verificationToken,
		VerificationTokenExpiresAt: &verificationExpiry,
		CreatedAt:                  now,
	}

	if err := c.credentials.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.metricInc(MetricRegisterRejected)
			return nil, NewValidationError("Email is already registered")
		}
		return nil, err
	}

	to, name := account.Email, account.DisplayName()
	c.dispatchMail("verification", func(ctx context.Context) error {
		return c.mail.SendVerification(ctx, to, name, verificationToken)
	})
	c.metricInc(MetricVerificationEmailSent)

	resp, err := c.issueSession(ctx, account, c.config.Session.Lifetime)
	if err != nil {
		return nil, err
	}

	c.metricInc(MetricRegisterSuccess)
	return resp, nil
}
