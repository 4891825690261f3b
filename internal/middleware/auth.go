package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jmcarrillo/clinica-api/internal/auth"
	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/repository"
)

type ContextKey string

// UserContextKey holds the resolved *model.User for downstream handlers.
const UserContextKey ContextKey = "user"

// Outcome is the result of authenticating a request. Authentication is
// modeled as a value, not an exception: handlers and wrappers pattern
// match on it to pick a response.
type Outcome int

const (
	Authorized Outcome = iota
	Unauthenticated
	Forbidden
)

// AuthResult carries the outcome plus the resolved user on success.
// Reason is for logging only; clients get a generic message so failed
// probes learn nothing about accounts or token internals.
type AuthResult struct {
	Outcome Outcome
	User    *model.User
	Reason  string

	// Err is set when the credential store failed; the request should
	// end in a 500, not a 401.
	Err error
}

// AuthGuard resolves bearer tokens to active users. It is applied
// per-protected-endpoint, so login, registration and health checks
// never pay its cost.
type AuthGuard struct {
	tokens *auth.JWTManager
	users  repository.UserRepository
	log    *zap.Logger
}

func NewAuthGuard(tokens *auth.JWTManager, users repository.UserRepository, log *zap.Logger) *AuthGuard {
	return &AuthGuard{tokens: tokens, users: users, log: log}
}

// Authenticate walks the request through
// NoCredential → TokenPresent → TokenValid → UserResolved → Authorized,
// stopping at the first failing edge.
func (g *AuthGuard) Authenticate(r *http.Request) AuthResult {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return AuthResult{Outcome: Unauthenticated, Reason: "missing bearer token"}
	}

	claims, err := g.tokens.Verify(tokenStr)
	if err != nil {
		// expired vs invalid vs malformed is kept for the log only.
		return AuthResult{Outcome: Unauthenticated, Reason: err.Error()}
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return AuthResult{Outcome: Unauthenticated, Reason: "non-numeric token subject"}
	}

	user, err := g.users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// Deleted and disabled deliberately collapse into one
			// outcome so account existence does not leak.
			return AuthResult{Outcome: Unauthenticated, Reason: "user not found or inactive"}
		}
		return AuthResult{Outcome: Unauthenticated, Reason: "credential store failure", Err: err}
	}

	if !user.Active {
		return AuthResult{Outcome: Forbidden, User: user, Reason: "inactive user"}
	}

	return AuthResult{Outcome: Authorized, User: user}
}

// Require wraps a handler that needs an authenticated user. On success
// the user is attached to the request context.
func (g *AuthGuard) Require(next http.HandlerFunc) http.HandlerFunc {
	return g.RequireRole("", next)
}

// RequireRole additionally demands the resolved user's role to match.
// The required role is named in the rejection message; role mismatches
// are not an account-probing vector.
func (g *AuthGuard) RequireRole(role model.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := g.Authenticate(r)

		switch res.Outcome {
		case Unauthenticated:
			if res.Err != nil {
				g.log.Error("credential lookup failed", zap.Error(res.Err))
				WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
			g.log.Warn("unauthenticated request",
				zap.String("path", r.URL.Path),
				zap.String("reason", res.Reason))
			w.Header().Set("WWW-Authenticate", "Bearer")
			WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing credentials")
			return

		case Forbidden:
			WriteError(w, http.StatusForbidden, "forbidden", "inactive user")
			return
		}

		if role != model.RoleUnknown && res.User.Role != role {
			WriteError(w, http.StatusForbidden, "forbidden", "role required: "+role.String())
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, res.User)
		next(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the user attached by the guard.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*model.User)
	return u, ok
}
