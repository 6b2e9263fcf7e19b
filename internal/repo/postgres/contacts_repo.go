package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/contactkeeper/internal/domain/contact"
	"github.com/geocoder89/contactkeeper/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contactColumns = `id, user_id, name, email, phone, type, date`

type ContactsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContactsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{pool: pool, prom: prom}
}

func (r *ContactsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ContactsRepo) Create(ctx context.Context, req contact.CreateContactRequest, ownerID string) (contact.Contact, error) {
	c := contact.NewFromCreateRequest(req, ownerID)

	err := r.observe("contacts.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO contacts (id, user_id, name, email, phone, type, date)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, c.User, c.Name, c.Email, c.Phone, c.Type, c.Date,
		)
		return e
	})

	if err != nil {
		return contact.Contact{}, fmt.Errorf("insert contact: %w", err)
	}

	return c, nil
}

func (r *ContactsRepo) ListByOwner(ctx context.Context, ownerID string) ([]contact.Contact, error) {
	output := make([]contact.Contact, 0)

	err := r.observe("contacts.list_by_owner", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+contactColumns+`
			FROM contacts
			WHERE user_id = $1
			ORDER BY date DESC, id DESC`,
			ownerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanContact(rows)
			if err != nil {
				return err
			}
			output = append(output, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return output, nil
}

func (r *ContactsRepo) GetByID(ctx context.Context, id string) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.get_by_id", func() error {
		var e error
		c, e = scanContact(r.pool.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
		return e
	})

	return c, mapContactErr("get contact", err)
}

// GetByIDForOwner only matches when the contact belongs to ownerID.
func (r *ContactsRepo) GetByIDForOwner(ctx context.Context, id, ownerID string) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.get_by_id_for_owner", func() error {
		var e error
		c, e = scanContact(r.pool.QueryRow(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, id, ownerID))
		return e
	})

	return c, mapContactErr("get contact", err)
}

// Update merges only non-nil fields of req.
func (r *ContactsRepo) Update(ctx context.Context, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.update", func() error {
		var e error
		c, e = scanContact(r.pool.QueryRow(ctx,
			`UPDATE contacts
			SET name  = COALESCE($2::text, name),
			    email = COALESCE($3::text, email),
			    phone = COALESCE($4::text, phone),
			    type  = COALESCE($5::text, type)
			WHERE id = $1
			RETURNING `+contactColumns,
			id, req.Name, req.Email, req.Phone, req.Type,
		))
		return e
	})

	return c, mapContactErr("update contact", err)
}

func (r *ContactsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("contacts.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return contact.ErrNotFound
	}

	return nil
}

func scanContact(row pgx.Row) (contact.Contact, error) {
	var c contact.Contact
	err := row.Scan(&c.ID, &c.User, &c.Name, &c.Email, &c.Phone, &c.Type, &c.Date)
	return c, err
}

func mapContactErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return contact.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
