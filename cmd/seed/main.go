package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/projectfocus/focus-api/config"
	"github.com/projectfocus/focus-api/internal/application"
	"github.com/projectfocus/focus-api/internal/container"
	pginfra "github.com/projectfocus/focus-api/internal/infrastructure/postgres"
	"github.com/projectfocus/focus-api/internal/router"
	"github.com/projectfocus/focus-api/pkg/helpers"
)

// seed creates a demo photographer through the same signup path the API uses,
// so the password policy and normalization apply.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetTokens(helpers.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTIssuer))

	svc := router.NewAuthService()

	name := "Demo Photographer"
	email := "demo@projectfocus.local"
	password := "Focus!demo2024"

	u, err := svc.Signup(ctx, application.SignupInput{Name: name, Email: email, Password: password})
	var ae *application.Error
	switch {
	case err == nil:
		fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", u.ID, u.Email, u.Name, password)
	case errors.As(err, &ae) && (ae.Kind == application.KindEmailTaken || ae.Kind == application.KindDuplicateEmail):
		fmt.Printf("user %s already exists\n", email)
	default:
		log.Fatalf("failed to seed user: %v", err)
	}
}
