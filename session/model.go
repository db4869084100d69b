package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/matchday/authcore/internal"
)

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// Session is one authenticated presence of an account. Sessions are
// never deleted from the registry, only marked inactive, so terminated
// rows remain queryable for audit.
type Session struct {
	ID               string
	AccountID        string
	RefreshTokenHash string
	TokenID          string
	StartedAt        time.Time
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	Active           bool
	IP               string
	UserAgent        string
	Device           string
	TerminatedReason string
	TerminatedAt     *time.Time
}

// Expired reports whether the session's lifetime has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// HashRefreshToken returns the persisted form of a refresh token value.
// The registry never stores the value itself.
func HashRefreshToken(token string) string {
	return internal.HashToken(token)
}
