// Package services contains server-side business logic: the access resolver
// and UserService, which handles signup, login, token refresh, email
// verification and admin-mediated profile management.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Tokens mints and checks bearer tokens.
type Tokens interface {
	TokenVerifier
	Issue(subject string, kind auth.Kind, ttl time.Duration) (string, error)
}

// Hasher hashes and checks passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type UserService struct {
	users  users.Repository
	access *AccessResolver
	tokens Tokens
	hasher Hasher
	logger logging.Logger

	// login against an unknown email still verifies against this hash
	decoy string
}

// NewUserService constructs a UserService. The repository is shared with
// the access resolver it builds.
func NewUserService(repo users.Repository, tokens Tokens, hasher Hasher, logger logging.Logger) *UserService {
	s := &UserService{
		users:  repo,
		access: NewAccessResolver(repo, tokens),
		tokens: tokens,
		hasher: hasher,
		logger: logger.With("module", "user_service"),
	}

	decoy, err := hasher.Hash("decoy-password")
	if err != nil {
		s.logger.Error(context.Background(), "Error hashing decoy password, unknown-email logins will answer faster", "error", err)
	}
	s.decoy = decoy
	return s
}

// Access exposes the resolver for transports that gate their own routes.
func (s *UserService) Access() *AccessResolver {
	return s.access
}

// Signup creates an unverified account with a fresh verification key.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if existing != nil {
		return nil, common.ErrorConflict
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	key, err := common.GenerateVerificationKey(common.VerificationKeyLength)
	if err != nil {
		return nil, fmt.Errorf("error generating verification key: %w", err)
	}

	user, err := s.users.Store(ctx, &models.User{
		Email:           in.Email,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		HashedPassword:  hash,
		VerificationKey: &key,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	// no mail delivery yet; the key is only available from the log
	s.logger.Info(ctx, "New user signed up", "user_id", user.ID, "email", user.Email, "verification_key", key)
	return user, nil
}

// Login checks the password and mints an access/refresh pair.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if user == nil {
		s.hasher.Verify(password, s.decoy)
		return nil, common.ErrorUnauthorized
	}
	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrorUnauthorized
	}

	access, err := s.tokens.Issue(user.ID, auth.KindAccess, 0)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.tokens.Issue(user.ID, auth.KindRefresh, 0)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh trades a refresh token for a new access token. The refresh token
// is handed back as is; it is not rotated.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.access.Authenticate(ctx, refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.Issue(user.ID, auth.KindAccess, 0)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Verify marks the caller's account verified if key matches the stored one.
// Once verified the stored key is gone, so a repeat call fails.
func (s *UserService) Verify(ctx context.Context, accessToken, key string) error {
	user, err := s.access.Current(ctx, accessToken)
	if err != nil {
		return err
	}

	if user.VerificationKey == nil ||
		subtle.ConstantTimeCompare([]byte(*user.VerificationKey), []byte(key)) != 1 {
		return common.ErrorInvalidKey
	}

	user.MarkVerified()
	if _, err := s.users.Store(ctx, user); err != nil {
		return fmt.Errorf("error storing user: %w", err)
	}

	s.logger.Info(ctx, "User verified", "user_id", user.ID)
	return nil
}

// Me returns the caller.
func (s *UserService) Me(ctx context.Context, accessToken string) (*models.User, error) {
	return s.access.Current(ctx, accessToken)
}

// List returns every user. Admins only.
func (s *UserService) List(ctx context.Context, accessToken string) ([]*models.User, error) {
	if _, err := s.access.Admin(ctx, accessToken); err != nil {
		return nil, err
	}
	return s.users.GetAll(ctx)
}

// GetUser returns one user by id. Admins only.
func (s *UserService) GetUser(ctx context.Context, accessToken, id string) (*models.User, error) {
	if _, err := s.access.Admin(ctx, accessToken); err != nil {
		return nil, err
	}
	return s.getExisting(ctx, id)
}

func (s *UserService) getExisting(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

// UpdateUser applies a profile update. Non-admins may only update themselves;
// that check happens before the target is looked up. Only the name columns
// are written, so a concurrent verification is never rolled back.
func (s *UserService) UpdateUser(ctx context.Context, accessToken, id string, upd UserUpdate) (*models.User, error) {
	caller, err := s.access.Current(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && caller.ID != id {
		return nil, common.ErrorForbidden
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateProfile(ctx, id, upd.FirstName, upd.LastName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return updated, nil
}

// DeleteUser removes another, non-admin user. Checks run in a fixed order:
// existence, then self-deletion, then same-rank deletion.
func (s *UserService) DeleteUser(ctx context.Context, accessToken, id string) error {
	admin, err := s.access.Admin(ctx, accessToken)
	if err != nil {
		return err
	}

	target, err := s.getExisting(ctx, id)
	if err != nil {
		return err
	}
	if target.ID == admin.ID {
		return common.ErrorCannotDeleteSelf
	}
	if target.IsAdmin {
		return common.ErrorCannotDeleteAdmin
	}

	if err := s.users.Delete(ctx, target); err != nil {
		return err
	}

	s.logger.Info(ctx, "User deleted", "user_id", target.ID, "deleted_by", admin.ID)
	return nil
}
