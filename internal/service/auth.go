// Package service contains the application service behind the auth
// endpoints.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jmcarrillo/clinica-api/internal/auth"
	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/ratelimit"
	"github.com/jmcarrillo/clinica-api/internal/repository"
	"github.com/jmcarrillo/clinica-api/internal/sanitize"
)

const (
	maxUsernameLen = 50
	minUsernameLen = 3
	minPasswordLen = 6
	maxPasswordLen = 100
)

// FieldError is a validation failure tied to a single input field. It
// is raised before any persistence call, so a bad request never causes
// a partial write.
type FieldError struct {
	Field  string
	Detail string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Detail }

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.JWTManager
	logins *ratelimit.LoginLimiter
	log    *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.JWTManager, logins *ratelimit.LoginLimiter, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logins: logins, log: log}
}

func (s *AuthService) Tokens() *auth.JWTManager { return s.tokens }

// Login authenticates a username/password pair and issues a bearer
// token. Unknown user and wrong password are indistinguishable to the
// caller; the distinction exists only in the log.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	username = strings.ToLower(sanitize.Sanitize(username, maxUsernameLen))

	if !s.logins.Allow(username) {
		s.log.Warn("login attempts throttled", zap.String("username", username))
		return "", nil, errs.ErrRateLimited
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil, errs.ErrUnauthorized
		}
		return "", nil, err
	}

	if !auth.CheckPasswordHash(password, u.PasswordHash) {
		s.log.Warn("failed login attempt", zap.String("username", username))
		return "", nil, errs.ErrUnauthorized
	}

	token, err := s.tokens.Generate(strconv.FormatInt(u.ID, 10))
	if err != nil {
		return "", nil, err
	}

	s.log.Info("login", zap.String("username", username))
	return token, u, nil
}

// RegisterInput is the raw registration payload before sanitization.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

// Register validates, sanitizes, and creates a new user, then issues a
// token for the fresh account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, *model.User, error) {
	username := strings.ToLower(sanitize.Sanitize(in.Username, maxUsernameLen))
	if len(username) < minUsernameLen {
		return "", nil, &FieldError{Field: "username", Detail: "must be at least 3 characters"}
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return "", nil, &FieldError{Field: "password", Detail: "must be between 6 and 100 characters"}
	}
	if !sanitize.ValidEmail(in.Email) {
		return "", nil, &FieldError{Field: "email", Detail: "invalid email format"}
	}

	role := model.RoleUser
	if in.Role != "" {
		parsed, ok := model.ParseRole(sanitize.Sanitize(in.Role, 20))
		if !ok {
			return "", nil, &FieldError{Field: "rol", Detail: "unknown role"}
		}
		role = parsed
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, in.Email)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, errs.ErrAlreadyExists
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        in.Email,
		Role:         role,
		Active:       true,
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return "", nil, err
	}
	u.ID = id

	token, err := s.tokens.Generate(strconv.FormatInt(id, 10))
	if err != nil {
		return "", nil, err
	}

	s.log.Info("user registered", zap.String("username", username), zap.String("rol", role.String()))
	return token, u, nil
}
