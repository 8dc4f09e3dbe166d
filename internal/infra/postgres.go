package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2
	connMaxLifetime = time.Hour
	connMaxIdleTime = 30 * time.Minute
)

// PoolConfig overrides the connection pool bounds for the chunk database.
type PoolConfig struct {
	MaxConns int
	MinConns int
}

// NewPostgresDB opens the pgvector-backed chunk database. Every connection
// registers the pgvector types so chunk embeddings scan directly into
// pgvector.Vector values.
func NewPostgresDB(ctx context.Context, dsn string, opts ...PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	cfg.MaxConns = defaultMaxConns
	cfg.MinConns = defaultMinConns
	if len(opts) > 0 {
		if opts[0].MaxConns > 0 {
			cfg.MaxConns = int32(opts[0].MaxConns)
		}
		if opts[0].MinConns > 0 {
			cfg.MinConns = int32(opts[0].MinConns)
		}
	}
	cfg.MaxConnLifetime = connMaxLifetime
	cfg.MaxConnIdleTime = connMaxIdleTime

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return pool, nil
}
