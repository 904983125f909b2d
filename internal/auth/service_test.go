package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/auth"
	"github.com/ovenline/backend-bakery/internal/repo"
)

type fakeUsers struct {
	users map[string]repo.User
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (repo.User, error) {
	u, ok := f.users[username]
	if !ok {
		return repo.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newTestService(t *testing.T, ttl time.Duration) (*auth.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := argon2id.CreateHash("correct horse battery", argon2id.DefaultParams)
	require.NoError(t, err)
	users := &fakeUsers{users: map[string]repo.User{
		"alice": {ID: uuid.New(), Username: "alice", DisplayName: "Alice", PasswordHash: hash, Role: "cashier"},
	}}
	return &auth.Service{Users: users, Redis: client, SessionTTL: ttl}, mr
}

func TestLoginAndVerify(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)

	sess, token, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "alice", sess.Username)
	require.Equal(t, "cashier", sess.Role)

	got, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, sess.UserID, got.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)

	_, _, err := svc.Login(context.Background(), "alice", "wrong password here")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)

	_, _, err := svc.Login(context.Background(), "mallory", "correct horse battery")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyExpiredSession(t *testing.T) {
	svc, mr := newTestService(t, time.Minute)

	_, token, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestVerifySlidesTTL(t *testing.T) {
	svc, mr := newTestService(t, time.Minute)

	_, token, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)

	mr.FastForward(45 * time.Second)
	_, err = svc.Verify(context.Background(), token)
	require.NoError(t, err)

	// The earlier Verify reset the clock, so the original deadline passing
	// must not end the session.
	mr.FastForward(45 * time.Second)
	_, err = svc.Verify(context.Background(), token)
	require.NoError(t, err)
}

func TestLogoutRevokesImmediately(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)

	_, token, err := svc.Login(context.Background(), "alice", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.Verify(context.Background(), token)
	require.ErrorIs(t, err, auth.ErrSessionExpired)
}
