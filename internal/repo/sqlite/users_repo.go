package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/geocoder89/contactkeeper/internal/domain/user"
	"github.com/geocoder89/contactkeeper/internal/observability"
)

type UsersRepo struct {
	db *sql.DB
	observer
}

func NewUsersRepo(db *sql.DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, observer: observer{prom: prom}}
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string) (user.User, error) {
	u := user.New(email, passwordHash, name)

	err := r.observe("users.create", func() error {
		_, e := r.db.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.Name, u.Email, u.PasswordHash, toMillis(u.CreatedAt),
		)
		return e
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	// round-trip precision matches what a later read returns
	u.CreatedAt = fromMillis(toMillis(u.CreatedAt))

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email",
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query, arg string) (user.User, error) {
	var (
		u         user.User
		createdAt int64
	)

	err := r.observe(op, func() error {
		return r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}
