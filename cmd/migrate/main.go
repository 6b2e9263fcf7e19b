package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/db"
	"github.com/geocoder89/contactkeeper/internal/observability"
	"github.com/geocoder89/contactkeeper/internal/repo/sqlite"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const usage = "usage: migrate [up|down|version]"

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	sqlDB, dialect, closeDB, err := open(ctx, cfg)
	if err != nil {
		log.Error("db connect failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeDB()

	switch cmd {
	case "up":
		err = db.Migrate(ctx, sqlDB, dialect)
	case "down":
		err = db.Rollback(ctx, sqlDB, dialect)
	case "version":
		var v int64
		v, err = db.Version(ctx, sqlDB, dialect)
		if err == nil {
			log.Info("schema version", "driver", cfg.StoreDriver, "version", v)
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error("migrate failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}

	log.Info("migrate complete", "cmd", cmd, "driver", cfg.StoreDriver)
}

func open(ctx context.Context, cfg config.Config) (*sql.DB, goose.Dialect, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, "", nil, err
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		return sqlDB, goose.DialectPostgres, func() {
			_ = sqlDB.Close()
			pool.Close()
		}, nil

	case config.DriverSQLite:
		sqlDB, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, "", nil, err
		}
		return sqlDB, goose.DialectSQLite3, func() { _ = sqlDB.Close() }, nil
	}

	return nil, "", nil, fmt.Errorf("store driver %q has no schema", cfg.StoreDriver)
}
