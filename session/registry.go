package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no session matches the lookup.
	ErrNotFound = errors.New("session not found")
	// ErrDuplicateRefreshToken indicates the refresh token hash is
	// already bound to another session.
	ErrDuplicateRefreshToken = errors.New("refresh token already in use")
	// ErrUnavailable indicates the registry backend is unreachable.
	ErrUnavailable = errors.New("session backend unavailable")
)

const defaultPrefix = "authcore"

// Registry stores sessions in Redis. Each session is a hash; secondary
// keys point from the refresh token hash and the access token id back to
// the session, and per-account sets index all and active sessions.
type Registry struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRegistry(redisClient redis.UniversalClient, prefix string) *Registry {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Registry{redis: redisClient, prefix: prefix}
}

func (r *Registry) sessionKey(id string) string {
	return r.prefix + ":s:" + id
}

func (r *Registry) refreshKey(hash string) string {
	return r.prefix + ":rt:" + hash
}

func (r *Registry) tokenIDKey(tokenID string) string {
	return r.prefix + ":jti:" + tokenID
}

func (r *Registry) accountKey(accountID string) string {
	return r.prefix + ":a:" + accountID
}

func (r *Registry) accountActiveKey(accountID string) string {
	return r.prefix + ":aa:" + accountID
}

func (r *Registry) activeKey() string {
	return r.prefix + ":act"
}

// Create persists a new active session. The refresh token hash must be
// unique among live bindings; a collision fails with
// ErrDuplicateRefreshToken and nothing is written.
func (r *Registry) Create(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" || s.AccountID == "" || s.RefreshTokenHash == "" {
		return errors.New("invalid session")
	}
	if !s.ExpiresAt.After(s.StartedAt) {
		return errors.New("session expiry must be after start")
	}

	ok, err := r.redis.SetNX(ctx, r.refreshKey(s.RefreshTokenHash), s.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrDuplicateRefreshToken
	}

	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, r.sessionKey(s.ID), encode(s))
	if s.TokenID != "" {
		pipe.Set(ctx, r.tokenIDKey(s.TokenID), s.ID, 0)
	}
	pipe.SAdd(ctx, r.accountKey(s.AccountID), s.ID)
	pipe.SAdd(ctx, r.accountActiveKey(s.AccountID), s.ID)
	pipe.SAdd(ctx, r.activeKey(), s.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetByID loads one session.
func (r *Registry) GetByID(ctx context.Context, id string) (*Session, error) {
	fields, err := r.redis.HGetAll(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decode(fields)
}

// GetByRefreshToken resolves a refresh token value to its session. The
// binding only exists while the session is active, so replayed tokens
// from rotated or terminated sessions miss.
func (r *Registry) GetByRefreshToken(ctx context.Context, token string) (*Session, error) {
	id, err := r.redis.Get(ctx, r.refreshKey(HashRefreshToken(token))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return r.GetByID(ctx, id)
}

// GetByTokenID resolves an access token jti to its session.
func (r *Registry) GetByTokenID(ctx context.Context, tokenID string) (*Session, error) {
	id, err := r.redis.Get(ctx, r.tokenIDKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return r.GetByID(ctx, id)
}

// ListByAccount returns every session of an account, terminated included.
func (r *Registry) ListByAccount(ctx context.Context, accountID string) ([]*Session, error) {
	return r.list(ctx, r.accountKey(accountID))
}

// ListActiveByAccount returns the account's active sessions.
func (r *Registry) ListActiveByAccount(ctx context.Context, accountID string) ([]*Session, error) {
	return r.list(ctx, r.accountActiveKey(accountID))
}

// CountActiveByAccount returns how many sessions of the account are active.
func (r *Registry) CountActiveByAccount(ctx context.Context, accountID string) (int, error) {
	n, err := r.redis.SCard(ctx, r.accountActiveKey(accountID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

func (r *Registry) list(ctx context.Context, setKey string) ([]*Session, error) {
	ids, err := r.redis.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// TouchActivity updates the session's last-activity timestamp.
func (r *Registry) TouchActivity(ctx context.Context, id string, at time.Time) error {
	exists, err := r.redis.Exists(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	if err := r.redis.HSet(ctx, r.sessionKey(id), fieldLastActivity, formatTime(at)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Terminate marks a session inactive with a reason and releases its
// refresh token binding. Terminating an already inactive session is a
// no-op, so sweep and explicit logout commute.
func (r *Registry) Terminate(ctx context.Context, id, reason string, at time.Time) error {
	vals, err := r.redis.HMGet(ctx, r.sessionKey(id), fieldAccountID, fieldActive, fieldRefreshHash).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	accountID, _ := vals[0].(string)
	active, _ := vals[1].(string)
	refreshHash, _ := vals[2].(string)
	if accountID == "" {
		return ErrNotFound
	}
	if active != "1" {
		return nil
	}

	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, r.sessionKey(id),
		fieldActive, "0",
		fieldTerminatedReason, reason,
		fieldTerminatedAt, formatTime(at),
	)
	pipe.SRem(ctx, r.accountActiveKey(accountID), id)
	pipe.SRem(ctx, r.activeKey(), id)
	if refreshHash != "" {
		pipe.Del(ctx, r.refreshKey(refreshHash))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// TerminateAllForAccount terminates every active session of an account.
// Returns how many sessions were terminated.
func (r *Registry) TerminateAllForAccount(ctx context.Context, accountID, reason string, at time.Time) (int, error) {
	ids, err := r.redis.SMembers(ctx, r.accountActiveKey(accountID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	terminated := 0
	for _, id := range ids {
		if err := r.Terminate(ctx, id, reason, at); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return terminated, err
		}
		terminated++
	}
	return terminated, nil
}

// SweepExpired terminates every active session whose expiry has passed,
// with reason "Session Expired". Returns how many sessions were swept.
func (r *Registry) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := r.redis.SMembers(ctx, r.activeKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	swept := 0
	for _, id := range ids {
		vals, err := r.redis.HMGet(ctx, r.sessionKey(id), fieldExpiresAt, fieldActive).Result()
		if err != nil {
			return swept, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		expRaw, _ := vals[0].(string)
		active, _ := vals[1].(string)
		if expRaw == "" || active != "1" {
			continue
		}
		exp, err := parseTime(expRaw)
		if err != nil {
			continue
		}
		if exp.After(now) {
			continue
		}
		if err := r.Terminate(ctx, id, ReasonExpired, now); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}

// Termination reasons written by the registry and its callers.
const (
	ReasonExpired       = "Session Expired"
	ReasonLogout        = "User logout"
	ReasonRotated       = "Token rotated"
	ReasonPasswordReset = "Password reset"
)

const (
	fieldID               = "id"
	fieldAccountID        = "acct"
	fieldRefreshHash      = "rth"
	fieldTokenID          = "jti"
	fieldStartedAt        = "start"
	fieldExpiresAt        = "exp"
	fieldLastActivity     = "last"
	fieldActive           = "act"
	fieldIP               = "ip"
	fieldUserAgent        = "ua"
	fieldDevice           = "dev"
	fieldTerminatedReason = "treason"
	fieldTerminatedAt     = "tat"
)

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseTime(raw string) (time.Time, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}

func encode(s *Session) map[string]interface{} {
	active := "0"
	if s.Active {
		active = "1"
	}

	fields := map[string]interface{}{
		fieldID:           s.ID,
		fieldAccountID:    s.AccountID,
		fieldRefreshHash:  s.RefreshTokenHash,
		fieldStartedAt:    formatTime(s.StartedAt),
		fieldExpiresAt:    formatTime(s.ExpiresAt),
		fieldLastActivity: formatTime(s.LastActivityAt),
		fieldActive:       active,
	}
	if s.TokenID != "" {
		fields[fieldTokenID] = s.TokenID
	}
	if s.IP != "" {
		fields[fieldIP] = s.IP
	}
	if s.UserAgent != "" {
		fields[fieldUserAgent] = s.UserAgent
	}
	if s.Device != "" {
		fields[fieldDevice] = s.Device
	}
	return fields
}

func decode(fields map[string]string) (*Session, error) {
	s := &Session{
		ID:               fields[fieldID],
		AccountID:        fields[fieldAccountID],
		RefreshTokenHash: fields[fieldRefreshHash],
		TokenID:          fields[fieldTokenID],
		Active:           fields[fieldActive] == "1",
		IP:               fields[fieldIP],
		UserAgent:        fields[fieldUserAgent],
		Device:           fields[fieldDevice],
		TerminatedReason: fields[fieldTerminatedReason],
	}

	var err error
	if s.StartedAt, err = parseTime(fields[fieldStartedAt]); err != nil {
		return nil, fmt.Errorf("corrupt session record: %v", err)
	}
	if s.ExpiresAt, err = parseTime(fields[fieldExpiresAt]); err != nil {
		return nil, fmt.Errorf("corrupt session record: %v", err)
	}
	if s.LastActivityAt, err = parseTime(fields[fieldLastActivity]); err != nil {
		return nil, fmt.Errorf("corrupt session record: %v", err)
	}
	if raw := fields[fieldTerminatedAt]; raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt session record: %v", err)
		}
		s.TerminatedAt = &t
	}
	return s, nil
}
