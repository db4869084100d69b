package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the auth coordinator.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is an exported constant or variable used by the auth coordinator.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountNotFound is an exported constant or variable used by the auth coordinator.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailExists is an exported constant or variable used by the auth coordinator.
	ErrEmailExists = errors.New("email already registered")
	// ErrRefreshInvalid is an exported constant or variable used by the auth coordinator.
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")
	// ErrTokenInvalid is an exported constant or variable used by the auth coordinator.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionNotFound is an exported constant or variable used by the auth coordinator.
	ErrSessionNotFound = errors.New("session not found")
	// ErrVerificationInvalid is an exported constant or variable used by the auth coordinator.
	ErrVerificationInvalid = errors.New("invalid or expired verification token")
	// ErrResetInvalid is an exported constant or variable used by the auth coordinator.
	ErrResetInvalid = errors.New("invalid or expired reset token")
	// ErrTooManyAttempts is an exported constant or variable used by the auth coordinator.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrCoordinatorNotReady is an exported constant or variable used by the auth coordinator.
	ErrCoordinatorNotReady = errors.New("coordinator not initialized")
)

// ValidationError carries one message per violated input rule so the
// caller can present all problems at once.
type ValidationError struct {
	Messages []string
}

// NewValidationError describes the newvalidationerror operation and its observable behavior.
//
// NewValidationError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// LockedOutError reports an authentication attempt against an account
// inside an active lockout window.
type LockedOutError struct {
	Until time.Time
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// IsAuthenticationError reports whether err belongs to the
// authentication class of the error taxonomy (credential, token and
// account-state failures that map to an unauthorized response).
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrRefreshInvalid) ||
		errors.Is(err, ErrTokenInvalid)
}
