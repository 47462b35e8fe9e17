package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/config"
	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
	pgrepo "github.com/Tanmay692004/techwithtim-tutorial/internal/repo/postgres"
	authsvc "github.com/Tanmay692004/techwithtim-tutorial/internal/services/auth"
)

// create-superuser creates an active, verified superuser or promotes an
// existing account with the same email.
func main() {
	email := flag.String("email", "", "superuser email")
	password := flag.String("password", "", "plain password")
	flag.Parse()

	if strings.TrimSpace(*email) == "" || *password == "" {
		log.Fatal("use -email and -password to pass superuser credentials")
	}

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	msg, err := run(ctx, cfgPath, *email, *password)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	log.Print(msg)
}

func run(ctx context.Context, cfgPath, email, password string) (string, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}

	normalized, err := authsvc.NormalizeEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	policy := authsvc.PasswordPolicy{MinSize: cfg.Auth.MinPasswordSize, Cost: cfg.Auth.BcryptCost}
	if err := policy.Validate(password, normalized); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}
	hash, err := policy.Hash(password)
	if err != nil {
		return "", err
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return "", fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		return "", fmt.Errorf("ensure schema: %w", err)
	}

	users := pgrepo.NewUserRepo(pool)
	existing, err := users.GetByEmail(ctx, normalized)
	switch {
	case err == nil:
		existing.HashedPassword = hash
		existing.IsActive = true
		existing.IsSuperuser = true
		existing.IsVerified = true
		if _, err := users.Update(ctx, existing); err != nil {
			return "", fmt.Errorf("promote user: %w", err)
		}
		return fmt.Sprintf("promoted %s (%s) to superuser", existing.Email, existing.ID), nil
	case errors.Is(err, model.ErrNotFound):
		created, err := users.Create(ctx, model.User{
			ID:             uuid.New(),
			Email:          normalized,
			HashedPassword: hash,
			IsActive:       true,
			IsSuperuser:    true,
			IsVerified:     true,
		})
		if err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
		return fmt.Sprintf("created superuser %s (%s)", created.Email, created.ID), nil
	default:
		return "", fmt.Errorf("lookup user: %w", err)
	}
}
