// Command createadmin bootstraps the initial admin account. It is meant
// to be run once against a fresh database, before the API is exposed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jmcarrillo/clinica-api/internal/auth"
	"github.com/jmcarrillo/clinica-api/internal/config"
	"github.com/jmcarrillo/clinica-api/internal/migrate"
	"github.com/jmcarrillo/clinica-api/internal/model"
	"github.com/jmcarrillo/clinica-api/internal/repository/postgres"
	"github.com/jmcarrillo/clinica-api/internal/sanitize"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "admin@clinica.local", "admin email")
	flag.Parse()

	if err := run(context.Background(), *username, *email); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, username, email string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	username = strings.ToLower(sanitize.Sanitize(username, 50))
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters")
	}
	if !sanitize.ValidEmail(email) {
		return fmt.Errorf("invalid email %q", email)
	}

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	repo := postgres.NewUserRepo(db)

	exists, err := repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return err
	}
	if exists {
		fmt.Printf("user %q already exists, nothing to do\n", username)
		return nil
	}

	fmt.Printf("Password for %q: ", username)
	password, err := readPassword()
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Print("Repeat password: ")
	confirm, err := readPassword()
	fmt.Println()
	if err != nil {
		return err
	}
	if string(password) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return err
	}

	id, err := repo.Create(ctx, &model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         model.RoleAdmin,
		Active:       true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("admin user %q created (id %d)\n", username, id)
	return nil
}
