package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newGoogleCoordinator(t *testing.T, verifier IdentityVerifier) (*Coordinator, *memoryStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryStore()
	coordinator, err := New().
		WithConfig(coordinatorTestConfig()).
		WithRedis(client).
		WithCredentialStore(store).
		WithMailSender(newMemoryMailer()).
		WithIdentityVerifier(verifier).
		Build()
	if err != nil {
		t.Fatalf("build coordinator: %v", err)
	}
	t.Cleanup(coordinator.Close)

	return coordinator, store
}

func TestGoogleLoginCreatesAccount(t *testing.T) {
	verifier := &fakeVerifier{identity: &Identity{
		SubjectID:     "sub-123",
		Email:         "Federated@Example.com",
		FirstName:     "Fede",
		LastName:      "Rated",
		EmailVerified: true,
	}}
	coordinator, store := newGoogleCoordinator(t, verifier)
	ctx := context.Background()

	resp, err := coordinator.GoogleLogin(ctx, "opaque-credential")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if resp.Email != "federated@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.Email)
	}
	if !resp.EmailConfirmed {
		t.Fatal("provider-verified email should arrive confirmed")
	}

	account := store.get(t, resp.AccountID)
	if account.GoogleSubjectID != "sub-123" {
		t.Fatalf("expected linked subject, got %q", account.GoogleSubjectID)
	}
	if account.PasswordHash != "" {
		t.Fatal("federated accounts carry no password hash")
	}

	// A second login matches by subject instead of creating a duplicate.
	again, err := coordinator.GoogleLogin(ctx, "opaque-credential")
	if err != nil {
		t.Fatalf("repeat google login: %v", err)
	}
	if again.AccountID != resp.AccountID {
		t.Fatal("expected the same account on repeat login")
	}
}

func TestGoogleLoginLinksExistingAccount(t *testing.T) {
	verifier := &fakeVerifier{identity: &Identity{
		SubjectID: "sub-456",
		Email:     testEmail,
	}}
	coordinator, store := newGoogleCoordinator(t, verifier)
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)

	resp, err := coordinator.GoogleLogin(ctx, "opaque-credential")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if resp.AccountID != reg.AccountID {
		t.Fatal("expected the existing account to be matched by email")
	}
	if store.get(t, reg.AccountID).GoogleSubjectID != "sub-456" {
		t.Fatal("expected the subject to be linked")
	}

	// The password still works after linking.
	if _, err := coordinator.Login(ctx, testEmail, testPassword, false); err != nil {
		t.Fatalf("password login after linking: %v", err)
	}
}

func TestGoogleLoginUpgradesLinkedAccount(t *testing.T) {
	verifier := &fakeVerifier{identity: &Identity{
		SubjectID:     "sub-456",
		Email:         testEmail,
		PictureURL:    "https://lh3.example.com/alice.png",
		EmailVerified: true,
	}}
	coordinator, store := newGoogleCoordinator(t, verifier)
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)
	if store.get(t, reg.AccountID).EmailConfirmed {
		t.Fatal("fresh registration should start unconfirmed")
	}

	resp, err := coordinator.GoogleLogin(ctx, "opaque-credential")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if !resp.EmailConfirmed {
		t.Fatal("response should reflect the confirmed email")
	}

	account := store.get(t, reg.AccountID)
	if !account.EmailConfirmed {
		t.Fatal("provider-verified email should confirm the account")
	}
	if account.VerificationToken != "" || account.VerificationTokenExpiresAt != nil {
		t.Fatal("confirmation should retire the pending verification token")
	}
	if account.ProfilePicture != "https://lh3.example.com/alice.png" {
		t.Fatalf("expected backfilled picture, got %q", account.ProfilePicture)
	}
}

func TestGoogleLoginKeepsExistingProfile(t *testing.T) {
	verifier := &fakeVerifier{identity: &Identity{
		SubjectID:  "sub-456",
		Email:      testEmail,
		PictureURL: "https://lh3.example.com/new.png",
	}}
	coordinator, store := newGoogleCoordinator(t, verifier)
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)
	seeded := store.get(t, reg.AccountID)
	seeded.EmailConfirmed = true
	seeded.ProfilePicture = "https://cdn.example.com/existing.png"

	if _, err := coordinator.GoogleLogin(ctx, "opaque-credential"); err != nil {
		t.Fatalf("google login: %v", err)
	}

	account := store.get(t, reg.AccountID)
	if !account.EmailConfirmed {
		t.Fatal("an unverified provider assertion must not revoke confirmation")
	}
	if account.ProfilePicture != "https://cdn.example.com/existing.png" {
		t.Fatalf("existing picture overwritten: %q", account.ProfilePicture)
	}
}

func TestGoogleLoginRejectedCredential(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("bad signature")}
	coordinator, _ := newGoogleCoordinator(t, verifier)

	if _, err := coordinator.GoogleLogin(context.Background(), "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestGoogleLoginInactiveAccount(t *testing.T) {
	verifier := &fakeVerifier{identity: &Identity{
		SubjectID: "sub-789",
		Email:     testEmail,
	}}
	coordinator, store := newGoogleCoordinator(t, verifier)
	ctx := context.Background()

	reg := registerTestAccount(t, coordinator, testEmail)
	store.get(t, reg.AccountID).Active = false

	if _, err := coordinator.GoogleLogin(ctx, "opaque-credential"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestGoogleLoginWithoutVerifier(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t, coordinatorTestConfig())

	if _, err := coordinator.GoogleLogin(context.Background(), "credential"); !errors.Is(err, ErrCoordinatorNotReady) {
		t.Fatalf("expected ErrCoordinatorNotReady, got %v", err)
	}
}
