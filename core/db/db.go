// Package db opens the Postgres pool behind the optional run log.
package db

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	DSN      string // empty disables the run log
	MaxConns int32
	MinConns int32
}

func (c Config) Enabled() bool {
	return c.DSN != ""
}

type DB struct {
	pool *pgxpool.Pool
}

// New connects and pings once so a bad DSN fails at startup, not mid-run.
func New(ctx context.Context, cfg Config) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	// One check writes at most a page of outcomes; a small pool is plenty.
	poolCfg.MaxConns = cmp.Or(cfg.MaxConns, 4)
	poolCfg.MinConns = cmp.Or(cfg.MinConns, 1)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

func (db *DB) Pool() *pgxpool.Pool { return db.pool }

func (db *DB) Close() { db.pool.Close() }

// WithTx runs fn in a transaction, committing when it returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if err := pgx.BeginFunc(ctx, db.pool, fn); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}
