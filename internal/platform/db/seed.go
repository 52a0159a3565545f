package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"manpower/internal/domain/auth"
	"manpower/internal/platform/config"
)

// Seed creates the configured tenant and its admin user when missing.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, tenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if err := pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id); err != nil {
		return "", err
	}
	slog.Info("seeded tenant", "tenantId", id, "name", name)
	return id, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := pool.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, tenantID, email, hash, auth.RoleAdmin).Scan(&id); err != nil {
		return err
	}
	slog.Info("seeded admin user", "userId", id, "email", email)
	return nil
}
