// Package postgres provides the pgx-backed credential store and the
// append-only audit sink.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	authcore "github.com/matchday/authcore"
)

const uniqueViolation = "23505"

// Store implements authcore.CredentialStore on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const accountColumns = `
	id, email, password_hash, first_name, last_name, roles, active,
	email_confirmed, google_subject_id, profile_picture,
	failed_login_count, lockout_end,
	refresh_token, refresh_token_expires_at,
	verification_token, verification_token_expires_at,
	reset_token, reset_token_expires_at,
	last_login_at, created_at`

func (s *Store) Create(ctx context.Context, account *authcore.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		account.ID, account.Email, account.PasswordHash,
		account.FirstName, account.LastName, account.Roles,
		account.Active, account.EmailConfirmed, nullString(account.GoogleSubjectID),
		nullString(account.ProfilePicture),
		account.FailedLoginCount, account.LockoutEnd,
		nullString(account.RefreshToken), account.RefreshTokenExpiresAt,
		nullString(account.VerificationToken), account.VerificationTokenExpiresAt,
		nullString(account.ResetToken), account.ResetTokenExpiresAt,
		account.LastLoginAt, account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authcore.ErrEmailExists
		}
		return err
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*authcore.Account, error) {
	return s.getBy(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*authcore.Account, error) {
	return s.getBy(ctx, `WHERE email = $1`, email)
}

func (s *Store) GetByGoogleSubject(ctx context.Context, subjectID string) (*authcore.Account, error) {
	return s.getBy(ctx, `WHERE google_subject_id = $1`, subjectID)
}

func (s *Store) getBy(ctx context.Context, where string, arg any) (*authcore.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts `+where, arg)

	var (
		account        authcore.Account
		googleSubject  *string
		profilePicture *string
		refreshToken   *string
		verifyToken    *string
		resetToken     *string
	)
	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.FirstName, &account.LastName, &account.Roles,
		&account.Active, &account.EmailConfirmed, &googleSubject, &profilePicture,
		&account.FailedLoginCount, &account.LockoutEnd,
		&refreshToken, &account.RefreshTokenExpiresAt,
		&verifyToken, &account.VerificationTokenExpiresAt,
		&resetToken, &account.ResetTokenExpiresAt,
		&account.LastLoginAt, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authcore.ErrAccountNotFound
		}
		return nil, err
	}

	account.GoogleSubjectID = deref(googleSubject)
	account.ProfilePicture = deref(profilePicture)
	account.RefreshToken = deref(refreshToken)
	account.VerificationToken = deref(verifyToken)
	account.ResetToken = deref(resetToken)
	return &account, nil
}

func (s *Store) LinkGoogleSubject(ctx context.Context, id, subjectID string) error {
	return s.update(ctx, `UPDATE accounts SET google_subject_id = $2 WHERE id = $1`, id, subjectID)
}

func (s *Store) UpdateProfilePicture(ctx context.Context, id, pictureURL string) error {
	return s.update(ctx, `UPDATE accounts SET profile_picture = $2 WHERE id = $1`, id, nullString(pictureURL))
}

func (s *Store) UpdateLockout(ctx context.Context, id string, failedCount int, lockoutEnd *time.Time) error {
	return s.update(ctx, `UPDATE accounts SET failed_login_count = $2, lockout_end = $3 WHERE id = $1`,
		id, failedCount, lockoutEnd)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.update(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (s *Store) UpdateRefreshToken(ctx context.Context, id, refreshToken string, expiresAt *time.Time) error {
	return s.update(ctx, `UPDATE accounts SET refresh_token = $2, refresh_token_expires_at = $3 WHERE id = $1`,
		id, nullString(refreshToken), expiresAt)
}

func (s *Store) UpdateVerification(ctx context.Context, id string, confirmed bool, verificationToken string, expiresAt *time.Time) error {
	return s.update(ctx, `
		UPDATE accounts
		SET email_confirmed = $2, verification_token = $3, verification_token_expires_at = $4
		WHERE id = $1`,
		id, confirmed, nullString(verificationToken), expiresAt)
}

func (s *Store) UpdateResetToken(ctx context.Context, id, resetToken string, expiresAt *time.Time) error {
	return s.update(ctx, `UPDATE accounts SET reset_token = $2, reset_token_expires_at = $3 WHERE id = $1`,
		id, nullString(resetToken), expiresAt)
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, `UPDATE accounts SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (s *Store) update(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrAccountNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
