package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"manpower/internal/platform/config"
)

// Connect opens a pool sized for the payroll worker fan-out plus HTTP traffic.
func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = int32(max(10, cfg.PayrollWorkers+4))
	poolCfg.MinConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
