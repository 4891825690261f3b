package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jmcarrillo/clinica-api/internal/errs"
	"github.com/jmcarrillo/clinica-api/internal/middleware"
	"github.com/jmcarrillo/clinica-api/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"rol"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req loginRequest
	if !s.decodeCredentials(w, r, &req) {
		return
	}

	token, _, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	token, u, err := s.authSvc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		var fe *service.FieldError
		switch {
		case errors.As(err, &fe):
			middleware.WriteError(w, http.StatusUnprocessableEntity, "validation_error", fe.Error())
		case errors.Is(err, errs.ErrAlreadyExists):
			middleware.WriteError(w, http.StatusBadRequest, "already_registered", "username or email already registered")
		default:
			s.writeAuthError(w, err)
		}
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         u,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, u)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, users)
}

// decodeCredentials accepts either a JSON body or a urlencoded form, so
// the login endpoint keeps working for both API clients and plain forms.
func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request, req *loginRequest) bool {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "bad_request", "invalid form body")
			return false
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return true
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

// writeAuthError maps service errors to responses. Unknown failures are
// redacted in production.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "incorrect username or password")
	case errors.Is(err, errs.ErrRateLimited):
		middleware.WriteError(w, http.StatusTooManyRequests, "too_many_requests", "too many login attempts, slow down")
	case errors.Is(err, errs.ErrStorageUnavailable):
		s.log.Error("credential store unavailable", zap.Error(err))
		middleware.WriteError(w, http.StatusServiceUnavailable, "service_unavailable", "service temporarily unavailable")
	default:
		s.log.Error("request failed", zap.Error(err))
		msg := "internal server error"
		if !s.cfg.IsProduction() {
			msg = err.Error()
		}
		middleware.WriteError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}
