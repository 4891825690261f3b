package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func userRows(id int64, username, rol string, activo bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "username", "password_hash", "email", "rol", "activo", "created_at"}).
		AddRow(id, username, "$2a$10$hash", username+"@clinica.com", rol, activo, time.Now())
}

func TestUserRepo_FindByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, username, password_hash, email, rol, activo, created_at FROM usuarios WHERE username=\$1 AND activo=TRUE`).
		WithArgs("admin").
		WillReturnRows(userRows(1, "admin", "Admin", true))
	u, err := r.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, model.RoleAdmin, u.Role, "raw role string is parsed into the closed set")

	mock.ExpectQuery(`SELECT id, username, password_hash, email, rol, activo, created_at FROM usuarios WHERE username=\$1 AND activo=TRUE`).
		WithArgs("nadie").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.FindByUsername(ctx, "nadie")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_FindByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, username, password_hash, email, rol, activo, created_at FROM usuarios WHERE id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(userRows(7, "maria", "usuario", true))
	u, err := r.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "maria", u.Username)
	assert.Equal(t, model.RoleUser, u.Role)

	// Inactive rows still come back by id; only login lookups filter.
	mock.ExpectQuery(`SELECT id, username, password_hash, email, rol, activo, created_at FROM usuarios WHERE id=\$1`).
		WithArgs(int64(8)).
		WillReturnRows(userRows(8, "baja", "usuario", false))
	u, err = r.FindByID(ctx, 8)
	require.NoError(t, err)
	assert.False(t, u.Active)
}

func TestUserRepo_FindByID_StorageFailure(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectQuery(`SELECT id, username, password_hash, email, rol, activo, created_at FROM usuarios WHERE id=\$1`).
		WithArgs(int64(7)).
		WillReturnError(&pgconn.PgError{Code: "57P01"})
	_, err := r.FindByID(context.Background(), 7)
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable, "backend failure is not a not-found")
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{Username: "nuevo", PasswordHash: "$2a$10$h", Email: "nuevo@clinica.com", Role: model.RoleUser, Active: true}

	mock.ExpectQuery(`INSERT INTO usuarios \(username, password_hash, email, rol, activo\) VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING id`).
		WithArgs(u.Username, u.PasswordHash, u.Email, "usuario", true).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	id, err := r.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	mock.ExpectQuery(`INSERT INTO usuarios \(username, password_hash, email, rol, activo\) VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING id`).
		WithArgs(u.Username, u.PasswordHash, u.Email, "usuario", true).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Create(ctx, u)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "email", "rol", "activo", "created_at"}).
		AddRow(int64(1), "admin", "$2a$10$h", "admin@clinica.com", "admin", true, time.Now()).
		AddRow(int64(2), "baja", "$2a$10$h", "baja@clinica.com", "usuario", false, time.Now())
	mock.ExpectQuery(`SELECT id, username, password_hash, email, rol, activo, created_at FROM usuarios ORDER BY id`).
		WillReturnRows(rows)

	users, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.False(t, users[1].Active, "inactive rows are listed too")
}

func TestUserRepo_ExistsByUsernameOrEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM usuarios WHERE username=\$1 OR email=\$2\)`).
		WithArgs("admin", "admin@clinica.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := r.ExistsByUsernameOrEmail(context.Background(), "admin", "admin@clinica.com")
	require.NoError(t, err)
	assert.True(t, exists)
}
