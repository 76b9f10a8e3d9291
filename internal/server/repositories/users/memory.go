package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/oklog/ulid/v2"
)

// MemoryRepository keeps users in process memory. It honours the same
// contract as PostgresRepository (unique email, all-or-nothing DeleteMany)
// and is used for local runs and tests. Records are copied in and out.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.User
	now   func() time.Time
	newID func() string
}

// NewMemoryRepository returns an empty repository. A nil clock means time.Now.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		byID:  make(map[string]*models.User),
		now:   now,
		newID: func() string { return ulid.Make().String() },
	}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) sorted(keep func(*models.User) bool) []*models.User {
	var out []*models.User
	for _, u := range r.byID {
		if keep(u) {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryRepository) GetAll(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(*models.User) bool { return true }), nil
}

func (r *MemoryRepository) FindExpiredUnverified(_ context.Context, grace time.Duration) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	threshold := r.now().Add(-grace)
	return r.sorted(func(u *models.User) bool {
		return !u.Verified && u.CreatedAt.Before(threshold)
	}), nil
}

func (r *MemoryRepository) Store(_ context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.HashedPassword == "" || user.Email == "" {
		return nil, common.ErrorValidation
	}
	if user.Verified && user.VerificationKey != nil {
		return nil, fmt.Errorf("%w: verified user with pending key", common.ErrorValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := user.ID
	if id == "" {
		id = r.newID()
	}
	for otherID, u := range r.byID {
		if otherID != id && u.Email == user.Email {
			return nil, fmt.Errorf("%w: email %s", common.ErrorConflict, user.Email)
		}
	}

	now := r.now()
	stored := user.Clone()
	stored.ID = id
	if existing, ok := r.byID[id]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.byID[id] = stored

	user.ID = id
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = stored.UpdatedAt
	return user, nil
}

func (r *MemoryRepository) UpdateProfile(_ context.Context, id string, firstName, lastName *string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
	}
	if firstName != nil {
		v := *firstName
		stored.FirstName = &v
	}
	if lastName != nil {
		v := *lastName
		stored.LastName = &v
	}
	stored.UpdatedAt = r.now()
	return stored.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, user *models.User) error {
	if user == nil {
		return common.ErrorNotFound
	}
	return r.DeleteMany(ctx, []*models.User{user})
}

func (r *MemoryRepository) DeleteMany(_ context.Context, users []*models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		if _, ok := r.byID[u.ID]; !ok {
			return fmt.Errorf("%w: user %s", common.ErrorNotFound, u.ID)
		}
	}
	for _, u := range users {
		delete(r.byID, u.ID)
	}
	return nil
}

func (r *MemoryRepository) DeleteUnverified(_ context.Context, users []*models.User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for _, u := range users {
		if stored, ok := r.byID[u.ID]; ok && !stored.Verified {
			delete(r.byID, u.ID)
			deleted++
		}
	}
	return deleted, nil
}
