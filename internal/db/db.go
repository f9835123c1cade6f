package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"account-service/internal/config"
)

// NewPool abre el pool con los limites de Config y verifica la conexion.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout())
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	maxConns, minConns := cfg.DBPoolSize()
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = minConns
	poolCfg.MaxConnLifetime = cfg.DBMaxConnLifetime()
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdleTime()
	poolCfg.HealthCheckPeriod = cfg.DBHealthCheckPeriod()
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout()
	return poolCfg, nil
}
