// Package database opens the relational store behind database/sql and applies
// schema migrations. Postgres goes through a pgx pool; SQLite (modernc, pure
// Go) serves local runs and tests.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	// DriverPostgres selects Postgres through pgx.
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded SQLite engine.
	DriverSQLite = "sqlite"
)

// ErrUnknownDriver indicates an unsupported database driver.
var ErrUnknownDriver = errors.New("database: unknown driver")

// Config configures Open.
type Config struct {
	Driver string
	// URL is a postgres connection string or a SQLite DSN
	// (for example "file:otpgate.db" or ":memory:").
	URL string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// PingTimeout bounds the startup connectivity check including retries.
	PingTimeout time.Duration
}

// DB is a database/sql handle that knows its dialect.
type DB struct {
	*sql.DB
	driver string
	pool   *pgxpool.Pool
}

// Driver returns DriverPostgres or DriverSQLite.
func (db *DB) Driver() string { return db.driver }

// Close closes the handle and, for Postgres, the underlying pool.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

// Open connects and waits until the database answers a ping.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	var (
		db  *DB
		err error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		db, err = openPostgres(ctx, cfg)
	case DriverSQLite:
		db, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, db.DB, cfg.PingTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return db, nil
}

func openPostgres(ctx context.Context, cfg Config) (*DB, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("database: parse postgres url: %w", err)
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("database: create pool: %w", err)
	}

	return &DB{DB: stdlib.OpenDBFromPool(pool), driver: DriverPostgres, pool: pool}, nil
}

func openSQLite(cfg Config) (*DB, error) {
	dsn := cfg.URL
	if dsn == "" {
		dsn = ":memory:"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}

	// one writer; also keeps a :memory: database alive on a single connection
	db.SetMaxOpenConns(1)

	return &DB{DB: db, driver: DriverSQLite}, nil
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	b := retry.NewFibonacci(100 * time.Millisecond)
	b = retry.WithCappedDuration(time.Second, b)
	b = retry.WithMaxDuration(timeout, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			slog.WarnContext(ctx, "database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Migrate applies every pending migration found in fsys. fsys holds one
// directory per driver name ("postgres", "sqlite").
func Migrate(ctx context.Context, db *DB, fsys fs.FS) error {
	dialect := goose.DialectPostgres
	if db.driver == DriverSQLite {
		dialect = goose.DialectSQLite3
	}

	sub, err := fs.Sub(fsys, db.driver)
	if err != nil {
		return fmt.Errorf("database: migrations for %s: %w", db.driver, err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, sub)
	if err != nil {
		return fmt.Errorf("database: migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("database: migrate up: %w", err)
	}

	for _, r := range results {
		slog.InfoContext(ctx, "migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}

	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure in
// either dialect. Primary key collisions are excluded; they mean a bad
// generated id, not a duplicate identity.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && !strings.HasSuffix(pgErr.ConstraintName, "_pkey")
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
