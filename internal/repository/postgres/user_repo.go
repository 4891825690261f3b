package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/repository"
)

// UserRepo implements repository.UserRepository over the usuarios table.
type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// FindByUsername filters on activo: for login, an inactive user is
// equivalent to a nonexistent one.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
SELECT id, username, password_hash, email, rol, activo, created_at
FROM usuarios WHERE username=$1 AND activo=TRUE`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, username))
}

// FindByID returns the record regardless of the activo flag so the
// guard can distinguish "no such user" (401) from "disabled" (403).
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
SELECT id, username, password_hash, email, rol, activo, created_at
FROM usuarios WHERE id=$1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) (int64, error) {
	const q = `
INSERT INTO usuarios (username, password_hash, email, rol, activo)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	var id int64
	err := r.db.Pool.QueryRow(ctx, q, u.Username, u.PasswordHash, u.Email, u.Role.String(), u.Active).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errs.ErrAlreadyExists
		}
		return 0, storageErr(err)
	}
	return id, nil
}

func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM usuarios WHERE username=$1 OR email=$2)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, username, email).Scan(&exists); err != nil {
		return false, storageErr(err)
	}
	return exists, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `
SELECT id, username, password_hash, email, rol, activo, created_at
FROM usuarios ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		var rawRole string
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &rawRole, &u.Active, &u.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		u.Role, _ = model.ParseRole(rawRole)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (r *UserRepo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var rawRole string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &rawRole, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	// Unknown roles collapse to RoleUnknown, which satisfies no requirement.
	u.Role, _ = model.ParseRole(rawRole)
	return &u, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
}

var _ repository.UserRepository = (*UserRepo)(nil)
