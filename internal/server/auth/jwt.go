package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes what a bearer token may be used for.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Default lifetimes per token kind.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the signed token body: the standard exp/sub/iat/jti plus the kind.
type Claims struct {
	jwt.RegisteredClaims
	Type Kind `json:"type"`
}

// Payload is what a successfully verified token carries.
type Payload struct {
	Subject   string
	Kind      Kind
	ExpiresAt time.Time
}

var errUnknownKind = errors.New("unknown token kind")

// TokenCodec mints and checks HS256 bearer tokens. Tokens are not stored
// anywhere, so an issued token stays valid until it expires.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec. Zero TTLs fall back to the per-kind defaults.
func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration) *TokenCodec {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenCodec{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) defaultTTL(kind Kind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.accessTTL, nil
	case KindRefresh:
		return c.refreshTTL, nil
	default:
		return 0, errUnknownKind
	}
}

// Issue signs a token for subject. A zero ttl means the kind's default.
func (c *TokenCodec) Issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	def, err := c.defaultTTL(kind)
	if err != nil {
		return "", err
	}
	if ttl == 0 {
		ttl = def
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: kind,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify returns the token payload, or false if the token is tampered,
// malformed, signed with another key or algorithm, or not strictly before
// its expiry. The cause is deliberately not reported.
func (c *TokenCodec) Verify(tokenString string) (*Payload, bool) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	// jwt accepts now == exp; we do not.
	exp := claims.ExpiresAt.Time
	if !c.now().Before(exp) {
		return nil, false
	}
	if claims.Subject == "" {
		return nil, false
	}
	if _, err := c.defaultTTL(claims.Type); err != nil {
		return nil, false
	}

	return &Payload{Subject: claims.Subject, Kind: claims.Type, ExpiresAt: exp}, true
}
