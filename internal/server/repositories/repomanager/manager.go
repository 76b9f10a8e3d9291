package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// RepositoryManager owns the process-wide connection pool and hands out
// repositories bound to it. It is created once at startup and passed
// explicitly to whoever needs storage.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Close() error
}
