package authcore

import (
	"context"
	"time"
)

// Account is the credential-store row for one registered user. Lockout
// counters, the current refresh token binding and the single-use
// verification and reset tokens all live on the account so the
// credential store can update them with targeted writes.
type Account struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Roles           []string
	Active          bool
	EmailConfirmed  bool
	GoogleSubjectID string
	ProfilePicture  string

	FailedLoginCount int
	LockoutEnd       *time.Time

	RefreshToken          string
	RefreshTokenExpiresAt *time.Time

	VerificationToken          string
	VerificationTokenExpiresAt *time.Time

	ResetToken          string
	ResetTokenExpiresAt *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// DisplayName returns the account's presentation name for mail and
// response payloads.
func (a *Account) DisplayName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.Email
	}
}

// CredentialStore persists accounts. Implementations must return
// ErrAccountNotFound for missing rows and ErrEmailExists when Create
// hits a duplicate email.
type CredentialStore interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByGoogleSubject(ctx context.Context, subjectID string) (*Account, error)
	LinkGoogleSubject(ctx context.Context, id, subjectID string) error
	UpdateProfilePicture(ctx context.Context, id, pictureURL string) error
	UpdateLockout(ctx context.Context, id string, failedCount int, lockoutEnd *time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateRefreshToken(ctx context.Context, id, refreshToken string, expiresAt *time.Time) error
	UpdateVerification(ctx context.Context, id string, confirmed bool, verificationToken string, expiresAt *time.Time) error
	UpdateResetToken(ctx context.Context, id, resetToken string, expiresAt *time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// MailSender delivers outbound account mail. Calls are dispatched
// asynchronously by the Coordinator; failures are logged, never
// surfaced to the triggering request.
type MailSender interface {
	SendVerification(ctx context.Context, to, name, verificationToken string) error
	SendPasswordReset(ctx context.Context, to, name, resetToken string) error
	SendPasswordChanged(ctx context.Context, to, name string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// Identity is a federated identity asserted by an external provider.
type Identity struct {
	SubjectID     string
	Email         string
	FirstName     string
	LastName      string
	PictureURL    string
	EmailVerified bool
}

// IdentityVerifier validates a provider credential and returns the
// asserted identity. The Coordinator never parses provider tokens
// itself.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// RegisterRequest defines a public type used by authcore APIs.
//
// RegisterRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegisterRequest struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// AuthResponse defines a public type used by authcore APIs.
//
// AuthResponse instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthResponse struct {
	AccountID            string
	Email                string
	FirstName            string
	LastName             string
	FullName             string
	Roles                []string
	EmailConfirmed       bool
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
	SessionID            string
}
