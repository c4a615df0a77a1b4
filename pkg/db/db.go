// Package db executes built queries against a database/sql connection. It
// maps each dialect backend to its driver (pgx for PostgreSQL,
// go-sql-driver for MySQL/MariaDB, modernc sqlite for SQLite), converts
// value parameters to driver arguments, and offers builder-aware helpers so
// model code can go from a qb.Builder straight to rows.
//
// The runner deliberately stays thin: no schema introspection, no
// migrations, no mapping of rows onto structs. Those concerns belong to the
// caller.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/veranda-web/veranda/pkg/dialect"
	"github.com/veranda-web/veranda/pkg/qb"
	"github.com/veranda-web/veranda/pkg/value"
)

// Runner wraps a database connection for one backend.
type Runner struct {
	db      *sql.DB
	backend dialect.Backend
	logger  *slog.Logger
}

// driverName maps a backend to its registered database/sql driver.
func driverName(b dialect.Backend) (string, error) {
	switch b {
	case dialect.Postgres:
		return "pgx", nil
	case dialect.MySQL, dialect.MariaDB:
		return "mysql", nil
	case dialect.SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("no driver for backend %q", b)
	}
}

// Open connects to the database for the given backend and verifies the
// connection with a ping. If logger is nil, a discard logger is used.
func Open(ctx context.Context, backend dialect.Backend, dsn string, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	logger.Debug("opening database connection",
		slog.String("backend", backend.String()),
		slog.String("driver", driver))

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", backend, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", backend, err)
	}
	return &Runner{db: db, backend: backend, logger: logger}, nil
}

// NewRunner wraps an existing connection. Callers that manage their own pool
// (or tests using a mock driver) use this instead of Open.
func NewRunner(db *sql.DB, backend dialect.Backend, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{db: db, backend: backend, logger: logger}
}

// Close closes the underlying connection.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	r.logger.Debug("closing database connection")
	return r.db.Close()
}

// DB exposes the underlying connection pool.
func (r *Runner) DB() *sql.DB { return r.db }

// Backend returns the backend this runner is connected to.
func (r *Runner) Backend() dialect.Backend { return r.backend }

// Builder returns a query builder targeting this runner's backend.
func (r *Runner) Builder() *qb.Builder { return qb.New(r.backend) }

// Query executes a statement that returns rows. Callers must close the rows
// and check rows.Err after iterating.
func (r *Runner) Query(ctx context.Context, sqlStr string, params []value.Value) (*sql.Rows, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	r.logger.Debug("executing query", slog.String("sql", sqlStr), slog.Int("params", len(params)))
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := r.db.QueryContext(ctx, sqlStr, value.Args(params)...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// QueryRow executes a statement expected to return at most one row.
func (r *Runner) QueryRow(ctx context.Context, sqlStr string, params []value.Value) *sql.Row {
	r.logger.Debug("executing query row", slog.String("sql", sqlStr), slog.Int("params", len(params)))
	return r.db.QueryRowContext(ctx, sqlStr, value.Args(params)...)
}

// Exec executes a statement that does not return rows.
func (r *Runner) Exec(ctx context.Context, sqlStr string, params []value.Value) (sql.Result, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	r.logger.Debug("executing statement", slog.String("sql", sqlStr), slog.Int("params", len(params)))
	res, err := r.db.ExecContext(ctx, sqlStr, value.Args(params)...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return res, nil
}

// checkBuilder rejects builders constructed for a different backend than the
// one this runner is connected to.
func (r *Runner) checkBuilder(b *qb.Builder) error {
	if b.Backend() != r.backend {
		return fmt.Errorf("builder targets %s, runner is connected to %s", b.Backend(), r.backend)
	}
	return nil
}

// Select compiles the builder into a SELECT and executes it.
func (r *Runner) Select(ctx context.Context, b *qb.Builder) (*sql.Rows, error) {
	if err := r.checkBuilder(b); err != nil {
		return nil, err
	}
	sqlStr, params, err := b.Build()
	if err != nil {
		return nil, err
	}
	return r.Query(ctx, sqlStr, params)
}

// Insert compiles the builder into an INSERT for data and executes it.
func (r *Runner) Insert(ctx context.Context, b *qb.Builder, data map[string]value.Value) (sql.Result, error) {
	if err := r.checkBuilder(b); err != nil {
		return nil, err
	}
	sqlStr, params, err := b.BuildInsert(data)
	if err != nil {
		return nil, err
	}
	return r.Exec(ctx, sqlStr, params)
}

// Update compiles the builder into an UPDATE for data and executes it.
func (r *Runner) Update(ctx context.Context, b *qb.Builder, data map[string]value.Value) (sql.Result, error) {
	if err := r.checkBuilder(b); err != nil {
		return nil, err
	}
	sqlStr, params, err := b.BuildUpdate(data)
	if err != nil {
		return nil, err
	}
	return r.Exec(ctx, sqlStr, params)
}

// Delete compiles the builder into a DELETE and executes it.
func (r *Runner) Delete(ctx context.Context, b *qb.Builder) (sql.Result, error) {
	if err := r.checkBuilder(b); err != nil {
		return nil, err
	}
	sqlStr, params, err := b.BuildDelete()
	if err != nil {
		return nil, err
	}
	return r.Exec(ctx, sqlStr, params)
}
