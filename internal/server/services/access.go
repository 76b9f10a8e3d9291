package services

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Policy is the trust level a caller must meet.
type Policy int

const (
	// PolicyAuthenticated needs a live access token for an existing user.
	PolicyAuthenticated Policy = iota
	// PolicyVerified additionally needs a verified account.
	PolicyVerified
	// PolicyAdmin additionally needs the admin flag.
	PolicyAdmin
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Payload, bool)
}

// AccessResolver turns a bearer token into a user under a Policy.
//
// Every failure short of a storage error is reported as
// common.ErrorUnauthorized, whatever the actual cause.
type AccessResolver struct {
	users  users.Repository
	tokens TokenVerifier
}

func NewAccessResolver(repo users.Repository, tokens TokenVerifier) *AccessResolver {
	return &AccessResolver{users: repo, tokens: tokens}
}

// Authenticate accepts only tokens of the given kind whose subject still exists.
func (r *AccessResolver) Authenticate(ctx context.Context, token string, kind auth.Kind) (*models.User, error) {
	payload, ok := r.tokens.Verify(token)
	if !ok || payload.Kind != kind {
		return nil, common.ErrorUnauthorized
	}

	user, err := r.users.Get(ctx, payload.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Resolve authenticates an access token and applies policy.
func (r *AccessResolver) Resolve(ctx context.Context, token string, policy Policy) (*models.User, error) {
	user, err := r.Authenticate(ctx, token, auth.KindAccess)
	if err != nil {
		return nil, err
	}

	switch policy {
	case PolicyAuthenticated:
		return user, nil
	case PolicyVerified:
		if user.Verified {
			return user, nil
		}
	case PolicyAdmin:
		if user.IsAdmin {
			return user, nil
		}
	}
	return nil, common.ErrorUnauthorized
}

func (r *AccessResolver) Current(ctx context.Context, token string) (*models.User, error) {
	return r.Resolve(ctx, token, PolicyAuthenticated)
}

func (r *AccessResolver) Verified(ctx context.Context, token string) (*models.User, error) {
	return r.Resolve(ctx, token, PolicyVerified)
}

func (r *AccessResolver) Admin(ctx context.Context, token string) (*models.User, error) {
	return r.Resolve(ctx, token, PolicyAdmin)
}
