// Package repository defines the persistence boundary consumed by the
// security pipeline.
package repository

import (
	"context"

	"github.com/jmcarrillo/clinica-api/internal/model"
)

// UserRepository is the credential store adapter. Not-found is a normal
// outcome (errs.ErrNotFound); storage failures surface separately as
// errs.ErrStorageUnavailable.
type UserRepository interface {
	// FindByUsername returns active users only: for login an inactive
	// user is equivalent to a nonexistent one.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID returns the record regardless of the active flag; the
	// guard turns a cleared flag into Forbidden rather than NotFound.
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// Create inserts the user and returns the assigned id.
	// errs.ErrAlreadyExists when username or email is taken.
	Create(ctx context.Context, u *model.User) (int64, error)

	// ExistsByUsernameOrEmail supports the registration uniqueness check.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// List returns all users, active or not, ordered by id.
	List(ctx context.Context) ([]model.User, error)
}
