package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
)

const pgUniqueViolation = "23505"

const userColumns = `id, email, first_name, last_name, hashed_password, is_admin, verified, verification_key, created_at, updated_at`

type PostgresRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:    db,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                       models.User
		firstName, lastName, vk sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &firstName, &lastName, &u.HashedPassword,
		&u.IsAdmin, &u.Verified, &vk, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.FirstName = fromNull(firstName)
	u.LastName = fromNull(lastName)
	u.VerificationKey = fromNull(vk)
	return &u, nil
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user *models.User
	err := dbx.WithReadTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := scanUser(tx.QueryRowContext(ctx, query, arg))
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	var result []*models.User
	err := dbx.WithReadTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			result = append(result, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 ORDER BY id
		 `
	return r.getMany(ctx, query)
}

// FindExpiredUnverified returns unverified users created more than grace ago.
func (r *PostgresRepository) FindExpiredUnverified(ctx context.Context, grace time.Duration) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE created_at < $1 AND verified = FALSE
		 ORDER BY id
		 `
	return r.getMany(ctx, query, r.now().Add(-grace))
}

// Store inserts the user or, if the id already exists, updates it. A missing
// id is generated here. The timestamps on the returned user are the ones the
// database assigned.
func (r *PostgresRepository) Store(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.HashedPassword == "" || user.Email == "" {
		return nil, common.ErrorValidation
	}
	if user.Verified && user.VerificationKey != nil {
		return nil, fmt.Errorf("%w: verified user with pending key", common.ErrorValidation)
	}

	query :=
		`INSERT INTO users (id, email, first_name, last_name, hashed_password, is_admin, verified, verification_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		 email = EXCLUDED.email,
		 first_name = EXCLUDED.first_name,
		 last_name = EXCLUDED.last_name,
		 hashed_password = EXCLUDED.hashed_password,
		 is_admin = EXCLUDED.is_admin,
		 verified = EXCLUDED.verified,
		 verification_key = EXCLUDED.verification_key,
		 updated_at = now()
		 RETURNING created_at, updated_at
		 `

	id := user.ID
	if id == "" {
		id = r.newID()
	}

	var createdAt, updatedAt time.Time
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return tx.QueryRowContext(ctx, query,
			id, user.Email, toNull(user.FirstName), toNull(user.LastName), user.HashedPassword,
			user.IsAdmin, user.Verified, toNull(user.VerificationKey),
		).Scan(&createdAt, &updatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: email %s", common.ErrorConflict, user.Email)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return user, nil
}

// UpdateProfile touches first_name, last_name and updated_at only, so it
// cannot undo a concurrent change to any other column.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, firstName, lastName *string) (*models.User, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	if firstName != nil {
		args = append(args, *firstName)
		sets = append(sets, fmt.Sprintf("first_name = $%d", len(args)))
	}
	if lastName != nil {
		args = append(args, *lastName)
		sets = append(sets, fmt.Sprintf("last_name = $%d", len(args)))
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `
		 WHERE id = $1
		 RETURNING ` + userColumns

	var user *models.User
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := scanUser(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func deleteByID(ctx context.Context, tx dbx.DBTX, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", common.ErrorNotFound, id)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, user *models.User) error {
	if user == nil {
		return common.ErrorNotFound
	}
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return deleteByID(ctx, tx, user.ID)
	})
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("db error: %w", err)
	}
	return err
}

// DeleteMany removes all given users in one transaction. If any delete
// fails, including one that matches no row, none of them are removed.
func (r *PostgresRepository) DeleteMany(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, u := range users {
			if err := deleteByID(ctx, tx, u.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("db error: %w", err)
	}
	return err
}

// DeleteUnverified deletes in one transaction, re-checking verified per row.
func (r *PostgresRepository) DeleteUnverified(ctx context.Context, users []*models.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	var deleted int
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, u := range users {
			res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND verified = FALSE`, u.ID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			deleted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return deleted, nil
}
