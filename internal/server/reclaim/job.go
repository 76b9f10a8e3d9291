// Package reclaim removes accounts that were never verified within a grace
// period after signup.
package reclaim

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// DefaultGracePeriod is how long a new account may stay unverified.
const DefaultGracePeriod = 48 * time.Hour

// Job deletes unverified users created before now - grace. Running it twice
// in a row is harmless: the second run finds nothing.
type Job struct {
	users  users.Repository
	grace  time.Duration
	logger logging.Logger
}

func NewJob(repo users.Repository, grace time.Duration, logger logging.Logger) *Job {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Job{users: repo, grace: grace, logger: logger.With("module", "reclaim")}
}

// Run performs one pass and reports how many users were removed.
func (j *Job) Run(ctx context.Context) (int, error) {
	expired, err := j.users.FindExpiredUnverified(ctx, j.grace)
	if err != nil {
		return 0, fmt.Errorf("error searching expired users: %w", err)
	}
	if len(expired) == 0 {
		j.logger.Debug(ctx, "No expired unverified users")
		return 0, nil
	}

	// users verified since the lookup are skipped by the delete
	deleted, err := j.users.DeleteUnverified(ctx, expired)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired users: %w", err)
	}

	j.logger.Info(ctx, "Deleted expired unverified users", "count", deleted, "found", len(expired))
	return deleted, nil
}
