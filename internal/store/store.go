// Package store wires the configured persistence backend behind the
// repository interfaces the HTTP layer consumes.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/db"
	"github.com/geocoder89/contactkeeper/internal/domain/contact"
	"github.com/geocoder89/contactkeeper/internal/domain/user"
	"github.com/geocoder89/contactkeeper/internal/observability"
	"github.com/geocoder89/contactkeeper/internal/repo/memory"
	"github.com/geocoder89/contactkeeper/internal/repo/postgres"
	"github.com/geocoder89/contactkeeper/internal/repo/sqlite"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Users interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Contacts interface {
	Create(ctx context.Context, req contact.CreateContactRequest, ownerID string) (contact.Contact, error)
	ListByOwner(ctx context.Context, ownerID string) ([]contact.Contact, error)
	GetByID(ctx context.Context, id string) (contact.Contact, error)
	GetByIDForOwner(ctx context.Context, id, ownerID string) (contact.Contact, error)
	Update(ctx context.Context, id string, req contact.UpdateContactRequest) (contact.Contact, error)
	Delete(ctx context.Context, id string) error
}

type Store struct {
	Driver   string
	Users    Users
	Contacts Contacts

	ping  func(ctx context.Context) error
	close func()
}

// Open connects to the backend selected by cfg.StoreDriver and, when
// cfg.AutoMigrate is set, brings its schema up to date.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return NewMemory(), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		sqlDB := stdlib.OpenDBFromPool(pool)

		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, sqlDB, goose.DialectPostgres); err != nil {
				_ = sqlDB.Close()
				pool.Close()
				return nil, err
			}
		}

		return &Store{
			Driver:   config.DriverPostgres,
			Users:    postgres.NewUsersRepo(pool, prom),
			Contacts: postgres.NewContactsRepo(pool, prom),
			ping:     pool.Ping,
			close: func() {
				_ = sqlDB.Close()
				pool.Close()
			},
		}, nil

	case config.DriverSQLite:
		sqlDB, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}

		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, sqlDB, goose.DialectSQLite3); err != nil {
				_ = sqlDB.Close()
				return nil, err
			}
		}

		return newSQLStore(config.DriverSQLite, sqlDB,
			sqlite.NewUsersRepo(sqlDB, prom),
			sqlite.NewContactsRepo(sqlDB, prom),
		), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// NewMemory returns a process-local store, used for dev runs and tests.
func NewMemory() *Store {
	return &Store{
		Driver:   config.DriverMemory,
		Users:    memory.NewUsersRepo(),
		Contacts: memory.NewContactsRepo(),
		ping:     func(context.Context) error { return nil },
		close:    func() {},
	}
}

func newSQLStore(driver string, sqlDB *sql.DB, users Users, contacts Contacts) *Store {
	return &Store{
		Driver:   driver,
		Users:    users,
		Contacts: contacts,
		ping:     sqlDB.PingContext,
		close:    func() { _ = sqlDB.Close() },
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close() {
	if s == nil || s.close == nil {
		return
	}
	s.close()
}
