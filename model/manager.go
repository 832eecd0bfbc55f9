package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// DBConfig carries the store settings the Manager needs. It is built
// once at startup from the process configuration.
type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	// ConnectTimeout bounds the initial reachability check.
	ConnectTimeout time.Duration
}

// Manager owns the store handle shared by every entity store. It holds
// no other state; all data-access calls borrow exactly one connection
// from its pool for the duration of one statement.
type Manager struct {
	db *bun.DB
}

// Connect opens the Postgres pool through pgx and wraps it with bun.
// It fails fast when the store is unreachable within the configured
// timeout rather than blocking the first request.
func Connect(ctx context.Context, cfg DBConfig) (*Manager, error) {
	sqldb, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open store connection")
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "store not reachable")
	}

	return &Manager{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// NewManager wraps an existing bun handle. Tests use it to run the
// stores against in-memory sqlite.
func NewManager(db *bun.DB) *Manager {
	return &Manager{db: db}
}

// DB exposes the underlying handle.
func (mm *Manager) DB() *bun.DB {
	return mm.db
}

// Close releases the pool.
func (mm *Manager) Close() error {
	return mm.db.Close()
}
