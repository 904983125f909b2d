package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ovenline/backend-bakery/internal/repo"
)

const sessionKeyPrefix = "session:"

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password. Callers must not distinguish the two.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrSessionExpired is returned when a presented session token is unknown
// or past its TTL.
var ErrSessionExpired = errors.New("auth: session expired")

// Session is the authenticated identity stored in Redis for the lifetime
// of a login.
type Session struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// UserStore is the slice of repo.Queries the service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (repo.User, error)
}

// Service authenticates cashiers and manages opaque session tokens. The
// token itself carries no claims; everything lives server-side in Redis so
// a logout revokes immediately.
type Service struct {
	Users      UserStore
	Redis      *redis.Client
	SessionTTL time.Duration
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 12 * time.Hour
}

// Login verifies the password and issues a new session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, string, error) {
	user, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, "", ErrInvalidCredentials
		}
		return Session{}, "", fmt.Errorf("auth: load user: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		return Session{}, "", fmt.Errorf("auth: compare password: %w", err)
	}
	if !match {
		return Session{}, "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return Session{}, "", err
	}
	sess := Session{
		UserID:      user.ID.String(),
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IssuedAt:    s.now(),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return Session{}, "", fmt.Errorf("auth: encode session: %w", err)
	}
	if err := s.Redis.Set(ctx, sessionKeyPrefix+token, raw, s.ttl()).Err(); err != nil {
		return Session{}, "", fmt.Errorf("auth: store session: %w", err)
	}
	return sess, token, nil
}

// Verify resolves a token to its session and slides the TTL forward so an
// active shift never logs itself out mid-register.
func (s *Service) Verify(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionExpired
	}
	raw, err := s.Redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, fmt.Errorf("auth: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("auth: decode session: %w", err)
	}
	_ = s.Redis.Expire(ctx, sessionKeyPrefix+token, s.ttl()).Err()
	return sess, nil
}

// Logout revokes the token. Revoking an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.Redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
