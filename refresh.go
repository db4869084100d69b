package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/matchday/authcore/session"
)

// RefreshToken describes the refreshtoken operation and its observable behavior.
//
// RefreshToken may return an error when input validation, dependency calls, or security checks fail.
// RefreshToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		c.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	old, err := c.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			// Unknown, rotated or terminated token. The binding is
			// released on rotation, so a replayed stale token lands here.
			c.metricInc(MetricRefreshFailure)
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	now := time.Now().UTC()
	if !old.Active || old.Expired(now) {
		c.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	account, err := c.credentials.GetByID(ctx, old.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.metricInc(MetricRefreshFailure)
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !account.Active {
		c.metricInc(MetricRefreshFailure)
		return nil, ErrAccountInactive
	}

	// Retire the old session before activating the replacement so the
	// presented token can never succeed twice.
	if err := c.sessions.Terminate(ctx, old.ID, session.ReasonRotated, now); err != nil {
		return nil, err
	}

	// The replacement keeps the lifetime horizon chosen at login.
	remaining := old.ExpiresAt.Sub(now)
	resp, err := c.issueSession(ctx, account, remaining)
	if err != nil {
		return nil, err
	}

	c.metricInc(MetricRefreshSuccess)
	return resp, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// With a refresh token, only the matching session is terminated. Without
// one, every active session of the account is terminated. The account's
// refresh token binding is cleared once the token is known to belong to
// the caller; a foreign token is rejected before any state changes.
func (c *Coordinator) Logout(ctx context.Context, accountID, refreshToken string) error {
	if accountID == "" {
		return ErrAccountNotFound
	}

	now := time.Now().UTC()

	if refreshToken != "" {
		sess, err := c.sessions.GetByRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				// Already rotated or terminated; logout stays idempotent.
				if err := c.credentials.UpdateRefreshToken(ctx, accountID, "", nil); err != nil {
					return err
				}
				c.metricInc(MetricLogout)
				c.emitLogoutAudit(ctx, accountID, "logout of already terminated session")
				return nil
			}
			return err
		}
		if sess.AccountID != accountID {
			return ErrRefreshInvalid
		}
		if err := c.credentials.UpdateRefreshToken(ctx, accountID, "", nil); err != nil {
			return err
		}
		if err := c.sessions.Terminate(ctx, sess.ID, session.ReasonLogout, now); err != nil {
			return err
		}
		c.metricInc(MetricLogout)
		c.emitLogoutAudit(ctx, accountID, "logout")
		return nil
	}

	if err := c.credentials.UpdateRefreshToken(ctx, accountID, "", nil); err != nil {
		return err
	}
	if _, err := c.sessions.TerminateAllForAccount(ctx, accountID, session.ReasonLogout, now); err != nil {
		return err
	}
	c.metricInc(MetricLogoutAll)
	c.emitLogoutAudit(ctx, accountID, "logout of all sessions")
	return nil
}

func (c *Coordinator) emitLogoutAudit(ctx context.Context, accountID, description string) {
	c.emitAudit(ctx, AuditEvent{
		Action:      AuditActionLogout,
		ActorID:     accountID,
		EntityType:  auditEntityAccount,
		EntityID:    accountID,
		Description: description,
		Success:     true,
	})
}
