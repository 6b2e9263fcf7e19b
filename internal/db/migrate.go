package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/geocoder89/contactkeeper/internal/db/migrations"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending embedded migration for the given dialect.
func Migrate(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect) error {
	provider, err := newProvider(sqlDB, dialect)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, r := range results {
		slog.Default().InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}

	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect) error {
	provider, err := newProvider(sqlDB, dialect)
	if err != nil {
		return err
	}

	if _, err := provider.Down(ctx); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func Version(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect) (int64, error) {
	provider, err := newProvider(sqlDB, dialect)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func newProvider(sqlDB *sql.DB, dialect goose.Dialect) (*goose.Provider, error) {
	var (
		fsys fs.FS
		err  error
	)

	switch dialect {
	case goose.DialectPostgres:
		fsys, err = fs.Sub(migrations.Postgres, "postgres")
	case goose.DialectSQLite3:
		fsys, err = fs.Sub(migrations.SQLite, "sqlite")
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	return provider, nil
}
