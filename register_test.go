package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterSuccess(t *testing.T) {
	cfg := coordinatorTestConfig()
	coordinator, store, mailer := newTestCoordinator(t, cfg)
	ctx := context.Background()

	resp, err := coordinator.Register(ctx, RegisterRequest{
		Email:           "  New.User@Example.COM ",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FirstName:       "New",
		LastName:        "User",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected an issued session")
	}
	if resp.EmailConfirmed {
		t.Fatal("fresh accounts start unconfirmed")
	}

	account := store.get(t, resp.AccountID)
	if len(account.Roles) != 1 || account.Roles[0] != cfg.Account.DefaultRole {
		t.Fatalf("expected default role, got %v", account.Roles)
	}
	if account.VerificationToken == "" || account.VerificationTokenExpiresAt == nil {
		t.Fatal("expected a pending verification token")
	}

	token := mailer.waitFor(t, "verification")
	if token != account.VerificationToken {
		t.Fatal("mailed token does not match stored token")
	}
}

func TestRegisterValidation(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t, coordinatorTestConfig())

	_, err := coordinator.Register(context.Background(), RegisterRequest{
		Email:           "not-an-email",
		Password:        "short",
		ConfirmPassword: "different",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	want := map[string]bool{
		"Email address is invalid":                             false,
		"Passwords do not match":                               false,
		"Password must be at least 8 characters long":          false,
		"Password must contain at least one uppercase letter":  false,
		"Password must contain at least one digit":             false,
		"Password must contain at least one special character": false,
	}
	for _, msg := range verr.Messages {
		if _, ok := want[msg]; ok {
			want[msg] = true
		}
	}
	for msg, seen := range want {
		if !seen {
			t.Errorf("missing validation message %q (got %v)", msg, verr.Messages)
		}
	}
}

func TestRegisterMissingEmail(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t, coordinatorTestConfig())

	_, err := coordinator.Register(context.Background(), RegisterRequest{
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Messages) != 1 || verr.Messages[0] != "Email is required" {
		t.Fatalf("unexpected messages: %v", verr.Messages)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t, coordinatorTestConfig())
	ctx := context.Background()

	registerTestAccount(t, coordinator, testEmail)

	_, err := coordinator.Register(ctx, RegisterRequest{
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Messages) != 1 || verr.Messages[0] != "Email is already registered" {
		t.Fatalf("unexpected messages: %v", verr.Messages)
	}
}
