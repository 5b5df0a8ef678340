package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens and pings a pgx pool. In development SSL is disabled unless
// the DSN says otherwise; elsewhere the simple protocol is used so the pool
// works behind a transaction pooler such as pgbouncer.
func NewPool(ctx context.Context, dsn string, development bool) (*pgxpool.Pool, error) {
	if development && !strings.Contains(dsn, "sslmode") {
		dsn = withParam(dsn, "sslmode=disable")
	}
	if !development && !strings.Contains(dsn, "default_query_exec_mode") {
		dsn = withParam(dsn, "default_query_exec_mode=simple_protocol")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func withParam(dsn, param string) string {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn + " " + param
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}
