package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// GoogleLogin describes the googlelogin operation and its observable behavior.
//
// GoogleLogin may return an error when input validation, dependency calls, or security checks fail.
// GoogleLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) GoogleLogin(ctx context.Context, idToken string) (*AuthResponse, error) {
	if c.verifier == nil {
		return nil, ErrCoordinatorNotReady
	}

	identity, err := c.verifier.Verify(ctx, idToken)
	if err != nil {
		c.metricInc(MetricGoogleLoginFailure)
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionLoginFailed,
			EntityType:  auditEntityAccount,
			Description: "google credential rejected",
			Success:     false,
			Error:       errorText(err),
		})
		return nil, ErrTokenInvalid
	}

	account, err := c.resolveGoogleAccount(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		c.metricInc(MetricGoogleLoginFailure)
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionLoginFailed,
			ActorID:     account.ID,
			ActorName:   account.Email,
			EntityType:  auditEntityAccount,
			EntityID:    account.ID,
			EntityName:  account.Email,
			Description: "google login against inactive account",
			Success:     false,
			Error:       ErrAccountInactive.Error(),
		})
		return nil, ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := c.credentials.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}

	resp, err := c.issueSession(ctx, account, c.config.Session.Lifetime)
	if err != nil {
		return nil, err
	}

	c.metricInc(MetricGoogleLoginSuccess)
	c.emitAudit(ctx, AuditEvent{
		Action:      AuditActionLogin,
		ActorID:     account.ID,
		ActorName:   account.Email,
		EntityType:  auditEntityAccount,
		EntityID:    account.ID,
		EntityName:  account.Email,
		Description: "google login",
		Success:     true,
	})

	return resp, nil
}

// resolveGoogleAccount matches the asserted identity to an account:
// first by provider subject, then by email (linking the subject), and
// finally by creating a federated account with no password. Linking
// also upgrades the account with what the provider asserts: a verified
// email confirms a pending account and a picture fills an empty one.
func (c *Coordinator) resolveGoogleAccount(ctx context.Context, identity *Identity) (*Account, error) {
	account, err := c.credentials.GetByGoogleSubject(ctx, identity.SubjectID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	email := normalizeEmail(identity.Email)
	account, err = c.credentials.GetByEmail(ctx, email)
	if err == nil {
		if err := c.credentials.LinkGoogleSubject(ctx, account.ID, identity.SubjectID); err != nil {
			return nil, err
		}
		account.GoogleSubjectID = identity.SubjectID

		// The provider assertion confirms a pending email and retires
		// the outstanding verification token.
		if identity.EmailVerified && !account.EmailConfirmed {
			if err := c.credentials.UpdateVerification(ctx, account.ID, true, "", nil); err != nil {
				return nil, err
			}
			account.EmailConfirmed = true
			account.VerificationToken = ""
			account.VerificationTokenExpiresAt = nil
		}

		if account.ProfilePicture == "" && identity.PictureURL != "" {
			if err := c.credentials.UpdateProfilePicture(ctx, account.ID, identity.PictureURL); err != nil {
				return nil, err
			}
			account.ProfilePicture = identity.PictureURL
		}
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	account = &Account{
		ID:              uuid.NewString(),
		Email:           email,
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		Roles:           []string{c.config.Account.DefaultRole},
		Active:          true,
		EmailConfirmed:  identity.EmailVerified,
		GoogleSubjectID: identity.SubjectID,
		ProfilePicture:  identity.PictureURL,
		CreatedAt:       time.Now().UTC(),
	}
	if err := c.credentials.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
