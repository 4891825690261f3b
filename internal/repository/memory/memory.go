// Package memory holds an in-memory UserRepository used in tests and
// for running the server without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/repository"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]*model.User
	nextID int64
}

func New() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[int64]*model.User),
		nextID: 1,
	}
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *MemoryRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, errs.ErrNotFound
}

func (r *MemoryRepository) Create(ctx context.Context, u *model.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return 0, errs.ErrAlreadyExists
		}
	}
	cp := *u
	cp.ID = r.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.users[cp.ID] = &cp
	r.nextID++
	return cp.ID, nil
}

func (r *MemoryRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Deactivate clears the active flag; used by tests to model disabled
// accounts. The record stays in place for referential integrity.
func (r *MemoryRepository) Deactivate(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
}

var _ repository.UserRepository = (*MemoryRepository)(nil)
