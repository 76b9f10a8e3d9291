// Package users is the only gateway to user records. Every operation runs in
// its own session scope (one transaction), so no caller ever observes another
// operation's uncommitted writes.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the storage contract used by services and the reclamation job.
//
// Lookups return (nil, nil) when nothing matches.
type Repository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	FindExpiredUnverified(ctx context.Context, grace time.Duration) ([]*models.User, error)
	Store(ctx context.Context, user *models.User) (*models.User, error)
	// UpdateProfile writes only the given name fields (nil means unchanged)
	// and updated_at. ErrorNotFound if id does not exist.
	UpdateProfile(ctx context.Context, id string, firstName, lastName *string) (*models.User, error)
	Delete(ctx context.Context, user *models.User) error
	DeleteMany(ctx context.Context, users []*models.User) error
	// DeleteUnverified removes those of users that are still unverified and
	// reports how many it removed. Rows that are gone or got verified in the
	// meantime are skipped, not treated as errors.
	DeleteUnverified(ctx context.Context, users []*models.User) (int, error)
}
