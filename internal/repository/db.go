// Package repository stores extracted parts, image links, guides and document runs.
// SQLite (modernc) is the default backend; a postgres:// DSN switches to pgx.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/parts-catalog/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFrom copies the database section of the application config.
func ConfigFrom(c common.DatabaseConfig) Config {
	return Config{
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// DB is an open database with the Ent driver used to build and run statements.
type DB struct {
	Driver  *entsql.Driver
	Dialect string
	pool    *pgxpool.Pool
}

// SQL returns the underlying *sql.DB.
func (db *DB) SQL() *sql.DB { return db.Driver.DB() }

// IsPostgres reports whether a DSN selects the Postgres backend.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the backend selected by cfg.DSN and wraps it for Ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "database DSN is required", common.ErrInvalidInput)
	}
	if IsPostgres(cfg.DSN) {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "backend", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError("DATABASE_ERROR", "parse DSN", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "parts-catalog"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError("DATABASE_ERROR", "connect", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	// Wrap pool as *sql.DB for Ent
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{Driver: entsql.OpenDB(dialect.Postgres, db), Dialect: dialect.Postgres, pool: pool}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := sqliteDSN(cfg.DSN)
	logger.Info("connecting to database", "backend", "sqlite", "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.NewAppError("DATABASE_ERROR", "open sqlite", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	// one writer; concurrent batch workers queue on the pool instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError("DATABASE_ERROR", "ping sqlite", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	logger.Info("successfully connected to database")
	return &DB{Driver: entsql.OpenDB(dialect.SQLite, db), Dialect: dialect.SQLite}, nil
}

// sqliteDSN normalizes a path or file: URI and turns on foreign keys.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if !strings.Contains(dsn, "foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return dsn
}

// Close closes the database connections gracefully
func Close(db *DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if err := db.Driver.Close(); err != nil {
		logger.Error("failed to close ent driver", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if db.pool != nil {
		err = db.pool.Ping(ctx)
	} else {
		err = db.SQL().PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return common.NewAppError("DATABASE_ERROR", "ping", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	logger.Debug("database ping successful")
	return nil
}
