// Package server wires the security pipeline around the HTTP API and
// owns the process lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jmcarrillo/clinica-api/internal/auth"
	"github.com/jmcarrillo/clinica-api/internal/config"
	"github.com/jmcarrillo/clinica-api/internal/middleware"
	"github.com/jmcarrillo/clinica-api/internal/migrate"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/ratelimit"
	"github.com/jmcarrillo/clinica-api/internal/repository"
	"github.com/jmcarrillo/clinica-api/internal/repository/memory"
	"github.com/jmcarrillo/clinica-api/internal/repository/postgres"
	"github.com/jmcarrillo/clinica-api/internal/service"
)

type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	router *http.ServeMux

	authSvc *service.AuthService
	guard   *middleware.AuthGuard
	limiter ratelimit.Limiter
	users   repository.UserRepository

	db          *postgres.DB
	redisClient *redis.Client
}

// NewLogger builds the process logger from the configured level.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// New assembles the server. With DATABASE_URL set it migrates and uses
// Postgres; otherwise every restart starts from an empty user set. The
// same fallback applies to REDIS_ADDR and the rate-limit store.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		log:    log,
		router: http.NewServeMux(),
	}

	var users repository.UserRepository
	if cfg.DatabaseURL != "" {
		if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.db = db
		users = postgres.NewUserRepo(db)
		log.Info("using postgres credential store")
	} else {
		users = memory.New()
		log.Warn("DATABASE_URL not set, using in-memory credential store")
	}

	if cfg.RedisAddr != "" {
		s.redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.limiter = ratelimit.NewRedisSlidingWindow(s.redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow)
		log.Info("using redis rate-limit store", zap.String("addr", cfg.RedisAddr))
	} else {
		s.limiter = ratelimit.NewSlidingWindow(cfg.RateLimitRequests, cfg.RateLimitWindow)
		log.Info("using in-process rate-limit store")
	}

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	logins := ratelimit.NewLoginLimiter(0.5, 5)

	s.users = users
	s.authSvc = service.NewAuthService(users, tokens, logins, log)
	s.guard = middleware.NewAuthGuard(tokens, users, log)

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/auth/register", s.handleRegister)
	s.router.HandleFunc("/auth/login", s.handleLogin)
	s.router.HandleFunc("/auth/me", s.guard.Require(s.handleMe))
	s.router.HandleFunc("/auth/users", s.guard.RequireRole(model.RoleAdmin, s.handleListUsers))
}

// Handler returns the router wrapped in the full middleware chain.
// Recover is outermost so a panic anywhere below still produces a
// well-formed response with security headers already set. Rate limiting
// sits in front of logging and body gating: over-quota clients are
// turned away before any further per-request work.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.router,
		middleware.Recover(s.log, s.cfg.IsProduction()),
		middleware.SecureHeaders(s.cfg.IsProduction()),
		middleware.RateLimit(s.limiter, s.log),
		middleware.RequestLogging(s.log, middleware.DefaultSlowThreshold),
		middleware.MaxPayload(s.cfg.MaxPayloadBytes),
		middleware.ValidateContentType(),
	)
}

// Start runs the HTTP server until SIGINT/SIGTERM or a listener error.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.ServerPort,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("port", s.cfg.ServerPort))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.log.Info("shutdown started", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	s.Close()
	return nil
}

// Close releases external connections. Safe to call with partial wiring.
func (s *Server) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
}
