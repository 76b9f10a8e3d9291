package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	now    time.Time
	repo   *users.MemoryRepository
	codec  *auth.TokenCodec
	hasher *auth.PasswordHasher
	svc    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	f.repo = users.NewMemoryRepository(clock)
	f.codec = auth.NewTokenCodec([]byte("test-secret"), 0, 0).WithClock(clock)
	f.hasher = auth.NewPasswordHasher(bcrypt.MinCost)
	f.svc = NewUserService(f.repo, f.codec, f.hasher, logging.Nop{})
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) seed(t *testing.T, email, password string, admin, verified bool) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	u, err := f.repo.Store(context.Background(), &models.User{
		Email:          email,
		HashedPassword: hash,
		IsAdmin:        admin,
		Verified:       verified,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) token(t *testing.T, u *models.User, kind auth.Kind) string {
	t.Helper()
	tok, err := f.codec.Issue(u.ID, kind, 0)
	require.NoError(t, err)
	return tok
}

func strPtr(s string) *string { return &s }

// recordingLogger keeps error messages for assertions.
type recordingLogger struct {
	logging.Nop
	errors []string
}

func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) With(...any) logging.Logger { return l }
