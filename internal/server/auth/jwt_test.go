package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func newCodec(now *time.Time) *TokenCodec {
	return NewTokenCodec([]byte("super-secret"), 0, 0).WithClock(fixedClock(now))
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	now := t0
	c := newCodec(&now)

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		tok, err := c.Issue("user-123", kind, 0)
		require.NoError(t, err)

		p, ok := c.Verify(tok)
		require.True(t, ok, "kind=%s", kind)
		assert.Equal(t, "user-123", p.Subject)
		assert.Equal(t, kind, p.Kind)
	}
}

func TestIssue_DefaultLifetimes(t *testing.T) {
	t.Parallel()

	now := t0
	c := newCodec(&now)

	access, err := c.Issue("u", KindAccess, 0)
	require.NoError(t, err)
	refresh, err := c.Issue("u", KindRefresh, 0)
	require.NoError(t, err)

	pa, ok := c.Verify(access)
	require.True(t, ok)
	pr, ok := c.Verify(refresh)
	require.True(t, ok)

	assert.True(t, t0.Add(30*time.Minute).Equal(pa.ExpiresAt), "access expiry %v", pa.ExpiresAt)
	assert.True(t, t0.Add(7*24*time.Hour).Equal(pr.ExpiresAt), "refresh expiry %v", pr.ExpiresAt)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	now := t0
	c := newCodec(&now)

	tok, err := c.Issue("u1", KindAccess, 0)
	require.NoError(t, err)
	expiry := t0.Add(DefaultAccessTTL)

	now = expiry.Add(-time.Second)
	_, ok := c.Verify(tok)
	assert.True(t, ok, "one second before expiry must be valid")

	now = expiry
	_, ok = c.Verify(tok)
	assert.False(t, ok, "expiry instant itself must be invalid")

	now = expiry.Add(time.Second)
	_, ok = c.Verify(tok)
	assert.False(t, ok, "one second after expiry must be invalid")
}

func TestIssue_ExplicitTTL(t *testing.T) {
	t.Parallel()

	now := t0
	c := newCodec(&now)

	tok, err := c.Issue("u1", KindRefresh, time.Minute)
	require.NoError(t, err)

	now = t0.Add(61 * time.Second)
	_, ok := c.Verify(tok)
	assert.False(t, ok)
}

func TestIssue_NegativeTTLIsExpired(t *testing.T) {
	t.Parallel()

	c := NewTokenCodec([]byte("secret"), 0, 0)
	tok, err := c.Issue("u1", KindAccess, -time.Second)
	require.NoError(t, err)

	_, ok := c.Verify(tok)
	assert.False(t, ok)
}

func TestIssue_UnknownKind(t *testing.T) {
	t.Parallel()

	c := NewTokenCodec([]byte("secret"), 0, 0)
	_, err := c.Issue("u1", Kind("bogus"), 0)
	assert.Error(t, err)
}

func TestIssue_TokensAreUnique(t *testing.T) {
	t.Parallel()

	now := t0
	c := newCodec(&now)
	a, err := c.Issue("u1", KindAccess, 0)
	require.NoError(t, err)
	b, err := c.Issue("u1", KindAccess, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenCodec([]byte("right-secret"), 0, 0).Issue("u2", KindAccess, 0)
	require.NoError(t, err)

	_, ok := NewTokenCodec([]byte("wrong-secret"), 0, 0).Verify(tok)
	assert.False(t, ok)
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	c := NewTokenCodec([]byte("k"), 0, 0)
	tok, err := c.Issue("u2", KindAccess, 0)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, err := c.Issue("admin", KindAccess, 0)
	require.NoError(t, err)
	// body of one token, signature of another
	mixed := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	_, ok := c.Verify(mixed)
	assert.False(t, ok)
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	c := NewTokenCodec([]byte("k"), 0, 0)
	for _, s := range []string{"", "not.a.jwt", "abc"} {
		_, ok := c.Verify(s)
		assert.False(t, ok, "input %q", s)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: KindAccess,
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, ok := NewTokenCodec(secret, 0, 0).Verify(s)
	assert.False(t, ok)
}

func TestVerify_RejectsMissingExpiryOrKind(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	c := NewTokenCodec(secret, 0, 0)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
		Type:             KindAccess,
	}).SignedString(secret)
	require.NoError(t, err)
	_, ok := c.Verify(noExp)
	assert.False(t, ok)

	badKind, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: "session",
	}).SignedString(secret)
	require.NoError(t, err)
	_, ok = c.Verify(badKind)
	assert.False(t, ok)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: KindAccess,
	}).SignedString(secret)
	require.NoError(t, err)
	_, ok = c.Verify(noSub)
	assert.False(t, ok)
}
