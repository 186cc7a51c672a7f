// Package pgdb owns the PostgreSQL access layer: the shared pool,
// per-request sessions bound to a user, and the interpretation of procedure
// results and driver errors.
package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/friendsofgo/errors"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PoolConfig bounds the shared connection pool.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DB wraps the shared pool. Request handlers never run statements on it
// directly; they lease a Session first so every statement carries a user.
type DB struct {
	pool *sql.DB
	log  *logrus.Entry
}

// Open connects to PostgreSQL and verifies the connection before returning.
func Open(ctx context.Context, dsn string, cfg PoolConfig, log *logrus.Entry) (*DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if cfg.MaxOpen > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.MaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging database")
	}

	return &DB{pool: pool, log: log}, nil
}

// Pool exposes the raw pool for callers that do not need a bound session,
// like health checks.
func (d *DB) Pool() *sql.DB {
	return d.pool
}

func (d *DB) Close() error {
	return d.pool.Close()
}
