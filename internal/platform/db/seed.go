package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/auth"
	"etmam/internal/platform/config"
)

// Seed makes sure the configured admin account can log in: the email is added
// to allowed_emails with the super_admin role and, when a seed password is
// set, a matching users row is created. Safe to run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" {
		return nil
	}

	if err := ensureAllowedEmail(ctx, pool, email); err != nil {
		return err
	}

	if cfg.SeedAdminPassword == "" {
		return nil
	}
	return ensureAdminUser(ctx, pool, email, cfg.SeedAdminPassword)
}

func ensureAllowedEmail(ctx context.Context, pool *pgxpool.Pool, email string) error {
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM allowed_emails WHERE lower(email) = $1)", email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err := pool.Exec(ctx, `
    INSERT INTO allowed_emails (email, role, allowed_sections, is_active, created_by)
    VALUES ($1, $2, $3, TRUE, 'system')
  `, email, auth.RoleSuperAdmin, auth.AllSections)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)", email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, name, password_hash, role, is_active)
    VALUES ($1, 'System Admin', $2, $3, TRUE)
  `, email, hash, auth.RoleSuperAdmin)
	return err
}
