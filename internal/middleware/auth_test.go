package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmcarrillo/clinica-api/internal/auth"
	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/repository/memory"
)

func newGuard(t *testing.T) (*AuthGuard, *auth.JWTManager, *memory.MemoryRepository) {
	t.Helper()
	tokens := auth.NewJWTManager("guard-test-secret", time.Hour)
	repo := memory.New()
	return NewAuthGuard(tokens, repo, zap.NewNop()), tokens, repo
}

func seedUser(t *testing.T, repo *memory.MemoryRepository, username string, role model.Role) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &model.User{
		Username:     username,
		PasswordHash: "$2a$10$irrelevant",
		Email:        username + "@clinica.com",
		Role:         role,
		Active:       true,
	})
	require.NoError(t, err)
	return id
}

func protected(g *AuthGuard) http.HandlerFunc {
	return g.Require(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		fmt.Fprint(w, u.Username)
	})
}

func TestGuard_MissingHeader(t *testing.T) {
	g, _, _ := newGuard(t)
	rec := httptest.NewRecorder()
	protected(g)(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestGuard_MalformedHeader(t *testing.T) {
	g, _, _ := newGuard(t)
	for _, header := range []string{"Basic dXNlcg==", "Bearer", "Bearer ", "token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		protected(g)(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestGuard_InvalidAndExpiredTokens(t *testing.T) {
	g, tokens, repo := newGuard(t)
	id := seedUser(t, repo, "maria", model.RoleUser)

	t.Run("expired", func(t *testing.T) {
		tok, err := tokens.GenerateWithTTL(fmt.Sprint(id), -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		protected(g)(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := auth.NewJWTManager("another-secret", time.Hour)
		tok, err := other.Generate(fmt.Sprint(id))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		protected(g)(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		protected(g)(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGuard_NonNumericSubject(t *testing.T) {
	g, tokens, _ := newGuard(t)
	tok, err := tokens.Generate("no-un-numero")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	protected(g)(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_UnknownUser(t *testing.T) {
	g, tokens, _ := newGuard(t)
	tok, err := tokens.Generate("424242")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	protected(g)(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_InactiveUserForbidden(t *testing.T) {
	g, tokens, repo := newGuard(t)
	id := seedUser(t, repo, "baja", model.RoleUser)
	repo.Deactivate(id)

	tok, err := tokens.Generate(fmt.Sprint(id))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	protected(g)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code, "valid token for a disabled account is forbidden, not unauthenticated")
}

func TestGuard_RoleRequirement(t *testing.T) {
	g, tokens, repo := newGuard(t)
	adminID := seedUser(t, repo, "admin", model.RoleAdmin)
	userID := seedUser(t, repo, "maria", model.RoleUser)

	adminOnly := g.RequireRole(model.RoleAdmin, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	adminTok, _ := tokens.Generate(fmt.Sprint(adminID))
	userTok, _ := tokens.Generate(fmt.Sprint(userID))

	req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	rec := httptest.NewRecorder()
	adminOnly(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+userTok)
	rec = httptest.NewRecorder()
	adminOnly(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), model.RoleAdmin.String(), "required role is named in the message")
}

func TestGuard_SuccessAttachesUser(t *testing.T) {
	g, tokens, repo := newGuard(t)
	id := seedUser(t, repo, "maria", model.RoleUser)
	tok, _ := tokens.Generate(fmt.Sprint(id))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	protected(g)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "maria", rec.Body.String())
}

// failingRepo simulates an unavailable credential store.
type failingRepo struct{}

func (failingRepo) FindByUsername(context.Context, string) (*model.User, error) {
	return nil, errs.ErrStorageUnavailable
}
func (failingRepo) FindByID(context.Context, int64) (*model.User, error) {
	return nil, errs.ErrStorageUnavailable
}
func (failingRepo) Create(context.Context, *model.User) (int64, error) {
	return 0, errs.ErrStorageUnavailable
}
func (failingRepo) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, errs.ErrStorageUnavailable
}
func (failingRepo) List(context.Context) ([]model.User, error) {
	return nil, errs.ErrStorageUnavailable
}

func TestGuard_StorageFailureIs500Not401(t *testing.T) {
	tokens := auth.NewJWTManager("guard-test-secret", time.Hour)
	g := NewAuthGuard(tokens, failingRepo{}, zap.NewNop())
	tok, _ := tokens.Generate("1")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	protected(g)(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
