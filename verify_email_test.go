package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifyEmailFlow(t *testing.T) {
	coordinator, store, mailer := newTestCoordinator(t, coordinatorTestConfig())
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)
	token := mailer.waitFor(t, "verification")

	if err := coordinator.VerifyEmail(ctx, testEmail, token); err != nil {
		t.Fatalf("verify email: %v", err)
	}

	account := store.get(t, reg.AccountID)
	if !account.EmailConfirmed {
		t.Fatal("expected confirmed email")
	}
	if account.VerificationToken != "" || account.VerificationTokenExpiresAt != nil {
		t.Fatal("expected verification token to be cleared")
	}
	mailer.waitFor(t, "welcome")

	// The token is single use, and confirmed accounts report as such.
	err := coordinator.VerifyEmail(ctx, testEmail, token)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on repeat, got %v", err)
	}
	if len(verr.Messages) != 1 || verr.Messages[0] != "Email is already confirmed" {
		t.Fatalf("unexpected messages: %v", verr.Messages)
	}
}

func TestVerifyEmailWrongToken(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t, coordinatorTestConfig())
	ctx := context.Background()

	registerTestAccount(t, coordinator, testEmail)

	if err := coordinator.VerifyEmail(ctx, testEmail, "wrong-token"); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid, got %v", err)
	}
	if err := coordinator.VerifyEmail(ctx, "nobody@example.com", "token"); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid for unknown email, got %v", err)
	}
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	coordinator, store, mailer := newTestCoordinator(t, coordinatorTestConfig())
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)
	token := mailer.waitFor(t, "verification")

	past := time.Now().UTC().Add(-time.Minute)
	store.get(t, reg.AccountID).VerificationTokenExpiresAt = &past

	if err := coordinator.VerifyEmail(ctx, testEmail, token); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expected ErrVerificationInvalid for expired token, got %v", err)
	}
}

func TestResendVerificationEmail(t *testing.T) {
	coordinator, store, mailer := newTestCoordinator(t, coordinatorTestConfig())
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)
	first := mailer.waitFor(t, "verification")

	if err := coordinator.ResendVerificationEmail(ctx, testEmail); err != nil {
		t.Fatalf("resend: %v", err)
	}
	second := mailer.waitFor(t, "verification")
	if second == first {
		t.Fatal("expected a fresh verification token")
	}

	// The old token is retired, the new one works.
	if err := coordinator.VerifyEmail(ctx, testEmail, first); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expected old token rejected, got %v", err)
	}
	if err := coordinator.VerifyEmail(ctx, testEmail, second); err != nil {
		t.Fatalf("verify with new token: %v", err)
	}

	if !store.get(t, reg.AccountID).EmailConfirmed {
		t.Fatal("expected confirmed email")
	}
}

func TestResendVerificationSilentCases(t *testing.T) {
	coordinator, _, mailer := newTestCoordinator(t, coordinatorTestConfig())
	ctx := context.Background()

	registerTestAccount(t, coordinator, testEmail)
	token := mailer.waitFor(t, "verification")

	if err := coordinator.VerifyEmail(ctx, testEmail, token); err != nil {
		t.Fatalf("verify email: %v", err)
	}

	// Confirmed accounts and unknown addresses both report success.
	if err := coordinator.ResendVerificationEmail(ctx, testEmail); err != nil {
		t.Fatalf("resend for confirmed account: %v", err)
	}
	if err := coordinator.ResendVerificationEmail(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("resend for unknown email: %v", err)
	}
}
