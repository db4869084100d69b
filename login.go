package authcore

import (
	"context"
	"errors"
	"time"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) Login(ctx context.Context, email, passwd string, rememberMe bool) (*AuthResponse, error) {
	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)

	// Throttle backend errors fail open: the account lockout counter
	// still protects known accounts.
	if allowed, err := c.loginThrottle.Allow(ctx, email, ip); err == nil && !allowed {
		c.metricInc(MetricLoginThrottled)
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionLoginFailed,
			ActorName:   email,
			EntityType:  auditEntityAccount,
			Description: "login attempt throttled",
			Success:     false,
			Error:       ErrTooManyAttempts.Error(),
		})
		return nil, ErrTooManyAttempts
	}

	account, err := c.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// No account counter exists to increment; the response stays
			// indistinguishable from a wrong password.
			c.metricInc(MetricLoginFailure)
			c.emitAudit(ctx, AuditEvent{
				Action:      AuditActionLoginFailed,
				ActorName:   email,
				EntityType:  auditEntityAccount,
				Description: "login failed for unknown identifier",
				Success:     false,
				Error:       ErrInvalidCredentials.Error(),
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	state := c.lockoutState(account)

	if c.lockouts.IsLocked(state, now) {
		c.metricInc(MetricLoginLockedOut)
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionLoginFailed,
			ActorID:     account.ID,
			ActorName:   account.Email,
			EntityType:  auditEntityAccount,
			EntityID:    account.ID,
			EntityName:  account.Email,
			Description: "login attempt while locked out",
			Success:     false,
			Error:       "account locked",
		})
		return nil, &LockedOutError{Until: *account.LockoutEnd}
	}

	if !account.Active {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionLoginFailed,
			ActorID:     account.ID,
			ActorName:   account.Email,
			EntityType:  auditEntityAccount,
			EntityID:    account.ID,
			EntityName:  account.Email,
			Description: "login attempt against inactive account",
			Success:     false,
			Error:       ErrAccountInactive.Error(),
		})
		return nil, ErrAccountInactive
	}

	// Federated accounts carry no password hash; a corrupt hash reads as
	// a mismatch rather than leaking record state.
	match := false
	if account.PasswordHash != "" {
		if ok, err := c.passwords.Verify(passwd, account.PasswordHash); err == nil {
			match = ok
		}
	}

	if !match {
		newState, justLocked := c.lockouts.RecordFailure(state, now)
		if err := c.credentials.UpdateLockout(ctx, account.ID, newState.FailedCount, newState.LockoutEnd); err != nil {
			return nil, err
		}

		if justLocked {
			c.metricInc(MetricLoginLockedOut)
			c.emitAudit(ctx, AuditEvent{
				Action:      AuditActionUserLockedOut,
				ActorID:     account.ID,
				ActorName:   account.Email,
				EntityType:  auditEntityAccount,
				EntityID:    account.ID,
				EntityName:  account.Email,
				Description: "failed login threshold reached",
				Success:     false,
				Error:       "account locked",
			})
			return nil, &LockedOutError{Until: *newState.LockoutEnd}
		}

		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEvent{
			Action:      AuditActionLoginFailed,
			ActorID:     account.ID,
			ActorName:   account.Email,
			EntityType:  auditEntityAccount,
			EntityID:    account.ID,
			EntityName:  account.Email,
			Description: "password mismatch",
			Success:     false,
			Error:       ErrInvalidCredentials.Error(),
		})
		return nil, ErrInvalidCredentials
	}

	if account.FailedLoginCount > 0 || account.LockoutEnd != nil {
		cleared := c.lockouts.RecordSuccess(state)
		if err := c.credentials.UpdateLockout(ctx, account.ID, cleared.FailedCount, cleared.LockoutEnd); err != nil {
			return nil, err
		}
	}
	_ = c.loginThrottle.Reset(ctx, email, ip)

	if err := c.credentials.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}

	resp, err := c.issueSession(ctx, account, c.sessionLifetime(rememberMe))
	if err != nil {
		return nil, err
	}

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, AuditEvent{
		Action:      AuditActionLogin,
		ActorID:     account.ID,
		ActorName:   account.Email,
		EntityType:  auditEntityAccount,
		EntityID:    account.ID,
		EntityName:  account.Email,
		Description: "password login",
		Success:     true,
	})

	return resp, nil
}
