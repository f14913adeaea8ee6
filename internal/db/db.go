// Package db holds the Postgres pool behind run history.
package db

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 3 * time.Second

// Option tunes the pool before it connects.
type Option func(*pgxpool.Config)

// WithMaxConns caps open connections. History writes are serialized per run,
// so a handful is plenty.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithConnLifetime recycles connections older than d.
func WithConnLifetime(d time.Duration) Option {
	return func(c *pgxpool.Config) { c.MaxConnLifetime = d }
}

type DB struct {
	pool *pgxpool.Pool
}

func poolConfig(databaseURL string, opts ...Option) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = time.Minute
	for _, o := range opts {
		o(cfg)
	}
	return cfg, nil
}

// Open builds the pool. Connections are made lazily; call Ping to check
// reachability.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	cfg, err := poolConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open pool")
	}
	return &DB{pool: pool}, nil
}

func (d *DB) Close() { d.pool.Close() }

func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return errors.Wrap(d.pool.Ping(ctx), "ping database")
}

func (d *DB) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := d.pool.Exec(ctx, sql, args...)
	return err
}

func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return d.pool.QueryRow(ctx, sql, args...)
}

func (d *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return d.pool.Query(ctx, sql, args...)
}

// InTx runs fn inside a transaction, committing only if fn succeeds.
func (d *DB) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, d.pool, fn)
}
