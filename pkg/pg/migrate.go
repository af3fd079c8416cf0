package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Logger receives goose output; *slog.Logger satisfies it.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// DefaultMigrationsTable is used when Config leaves MigrationsTable empty.
const DefaultMigrationsTable = "notifykit_migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns the schema shipped with the binary: the tenants table
// and the integrations table that references it.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// migrationsFS picks the directory override or the embedded schema.
func migrationsFS(cfg Config) (fs.FS, error) {
	if cfg.MigrationsPath == "" {
		return Migrations(), nil
	}
	info, err := os.Stat(cfg.MigrationsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Join(ErrMigrationsDirNotFound, err)
		}
		return nil, errors.Join(ErrFailedToApplyMigrations, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMigrationsDirNotFound, cfg.MigrationsPath)
	}
	return os.DirFS(cfg.MigrationsPath), nil
}

// Migrate applies all pending migrations through goose.
// goose speaks database/sql, so the pool is bridged with the pgx stdlib adapter.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log Logger) error {
	fsys, err := migrationsFS(cfg)
	if err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close database connection", "error", err)
		}
	}(db)

	// goose keeps its settings in package state; the base FS is reset so later
	// callers using plain directories are not affected.
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(newSlogAdapter(log))
	table := cfg.MigrationsTable
	if table == "" {
		table = DefaultMigrationsTable
	}
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// migrateSlogAdapter bridges goose's Printf-style logging to structured logging.
type migrateSlogAdapter struct {
	log Logger
}

func newSlogAdapter(log Logger) goose.Logger {
	return &migrateSlogAdapter{log: log}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
