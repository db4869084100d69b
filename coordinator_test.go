package authcore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testPassword = "Str0ng!Pass"
	testEmail    = "alice@example.com"
)

// coordinatorTestConfig returns a base config tuned for fast tests:
// minimal argon2 cost, low lockout threshold, hs256 signing.
func coordinatorTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.PrivateKey = []byte("test-secret-key-0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Lockout.Threshold = 3
	cfg.Lockout.Window = 30 * time.Minute
	return cfg
}

func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *memoryStore, *memoryMailer) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryStore()
	mailer := newMemoryMailer()

	coordinator, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(store).
		WithMailSender(mailer).
		Build()
	if err != nil {
		t.Fatalf("build coordinator: %v", err)
	}
	t.Cleanup(coordinator.Close)

	return coordinator, store, mailer
}

// registerTestAccount creates an account through the public flow and
// returns the registration response.
func registerTestAccount(t *testing.T, c *Coordinator, email string) *AuthResponse {
	t.Helper()

	resp, err := c.Register(context.Background(), RegisterRequest{
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FirstName:       "Alice",
		LastName:        "Larsen",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return resp
}

// memoryStore is an in-memory CredentialStore for scenario tests.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]*Account)}
}

func (s *memoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return ErrEmailExists
		}
	}
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *memoryStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *memoryStore) GetByGoogleSubject(_ context.Context, subjectID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.GoogleSubjectID != "" && account.GoogleSubjectID == subjectID {
			return cloneAccount(account), nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *memoryStore) LinkGoogleSubject(_ context.Context, id, subjectID string) error {
	return s.mutate(id, func(account *Account) {
		account.GoogleSubjectID = subjectID
	})
}

func (s *memoryStore) UpdateProfilePicture(_ context.Context, id, pictureURL string) error {
	return s.mutate(id, func(account *Account) {
		account.ProfilePicture = pictureURL
	})
}

func (s *memoryStore) UpdateLockout(_ context.Context, id string, failedCount int, lockoutEnd *time.Time) error {
	return s.mutate(id, func(account *Account) {
		account.FailedLoginCount = failedCount
		account.LockoutEnd = lockoutEnd
	})
}

func (s *memoryStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	return s.mutate(id, func(account *Account) {
		account.PasswordHash = hash
	})
}

func (s *memoryStore) UpdateRefreshToken(_ context.Context, id, refreshToken string, expiresAt *time.Time) error {
	return s.mutate(id, func(account *Account) {
		account.RefreshToken = refreshToken
		account.RefreshTokenExpiresAt = expiresAt
	})
}

func (s *memoryStore) UpdateVerification(_ context.Context, id string, confirmed bool, verificationToken string, expiresAt *time.Time) error {
	return s.mutate(id, func(account *Account) {
		account.EmailConfirmed = confirmed
		account.VerificationToken = verificationToken
		account.VerificationTokenExpiresAt = expiresAt
	})
}

func (s *memoryStore) UpdateResetToken(_ context.Context, id, resetToken string, expiresAt *time.Time) error {
	return s.mutate(id, func(account *Account) {
		account.ResetToken = resetToken
		account.ResetTokenExpiresAt = expiresAt
	})
}

func (s *memoryStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return s.mutate(id, func(account *Account) {
		account.LastLoginAt = &at
	})
}

func (s *memoryStore) mutate(id string, fn func(*Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	fn(account)
	return nil
}

// get returns the live record for assertions and direct test seeding.
func (s *memoryStore) get(t *testing.T, id string) *Account {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		t.Fatalf("account %s not in store", id)
	}
	return account
}

func cloneAccount(account *Account) *Account {
	out := *account
	out.Roles = append([]string(nil), account.Roles...)
	return &out
}

// memoryMailer records dispatched mail and signals each send so tests
// can wait for the async dispatch goroutine.
type memoryMailer struct {
	mu     sync.Mutex
	tokens map[string]string // kind -> last token
	sent   chan string       // kind
}

func newMemoryMailer() *memoryMailer {
	return &memoryMailer{
		tokens: make(map[string]string),
		sent:   make(chan string, 16),
	}
}

func (m *memoryMailer) record(kind, token string) {
	m.mu.Lock()
	m.tokens[kind] = token
	m.mu.Unlock()
	m.sent <- kind
}

func (m *memoryMailer) SendVerification(_ context.Context, _, _, verificationToken string) error {
	m.record("verification", verificationToken)
	return nil
}

func (m *memoryMailer) SendPasswordReset(_ context.Context, _, _, resetToken string) error {
	m.record("reset", resetToken)
	return nil
}

func (m *memoryMailer) SendPasswordChanged(_ context.Context, _, _ string) error {
	m.record("changed", "")
	return nil
}

func (m *memoryMailer) SendWelcome(_ context.Context, _, _ string) error {
	m.record("welcome", "")
	return nil
}

// waitFor blocks until mail of the given kind was dispatched.
func (m *memoryMailer) waitFor(t *testing.T, kind string) string {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case sent := <-m.sent:
			if sent == kind {
				m.mu.Lock()
				token := m.tokens[kind]
				m.mu.Unlock()
				return token
			}
		case <-deadline:
			t.Fatalf("no %s mail dispatched", kind)
		}
	}
}

// fakeVerifier returns a fixed identity for any credential, or an error.
type fakeVerifier struct {
	identity *Identity
	err      error
}

func (v *fakeVerifier) Verify(context.Context, string) (*Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func TestBuilderRequiresDependencies(t *testing.T) {
	if _, err := New().Build(); err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected redis requirement, got %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	if _, err := New().WithRedis(client).Build(); err == nil || !strings.Contains(err.Error(), "credential store") {
		t.Fatalf("expected credential store requirement, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	b := New().
		WithConfig(coordinatorTestConfig()).
		WithRedis(client).
		WithCredentialStore(newMemoryStore())

	coordinator, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer coordinator.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
