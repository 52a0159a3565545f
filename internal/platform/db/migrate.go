package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	Version string
	Path    string
}

// Migrate applies every *.sql file in dir that schema_migrations has not
// seen, in lexical order, one transaction per file.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	if _, err := pool.Exec(ctx, `
    CREATE TABLE IF NOT EXISTS schema_migrations (
      version TEXT PRIMARY KEY,
      applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )
  `); err != nil {
		return err
	}

	migrations, err := listMigrations(dir)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = $1", m.Version).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := apply(ctx, pool, m); err != nil {
			return err
		}
		slog.Info("migration applied", "version", m.Version)
	}
	return nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, m migration) error {
	sqlBytes, err := os.ReadFile(m.Path)
	if err != nil {
		return err
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("migration %s failed: %w", m.Version, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func listMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		out = append(out, migration{
			Version: strings.TrimSuffix(entry.Name(), ".sql"),
			Path:    filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
