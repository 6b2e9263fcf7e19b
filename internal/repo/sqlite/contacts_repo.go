package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/geocoder89/contactkeeper/internal/domain/contact"
	"github.com/geocoder89/contactkeeper/internal/observability"
)

const contactColumns = `id, user_id, name, email, phone, type, date`

type ContactsRepo struct {
	db *sql.DB
	observer
}

func NewContactsRepo(db *sql.DB, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{db: db, observer: observer{prom: prom}}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ContactsRepo) Create(ctx context.Context, req contact.CreateContactRequest, ownerID string) (contact.Contact, error) {
	c := contact.NewFromCreateRequest(req, ownerID)
	c.Date = fromMillis(toMillis(c.Date))

	err := r.observe("contacts.create", func() error {
		_, e := r.db.ExecContext(ctx,
			`INSERT INTO contacts (id, user_id, name, email, phone, type, date) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.User, c.Name, c.Email, c.Phone, c.Type, toMillis(c.Date),
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
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE user_id = ? ORDER BY date DESC, id DESC`, ownerID)
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
		c, e = scanContact(r.db.QueryRowContext(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
		return e
	})

	return c, mapContactErr("get contact", err)
}

func (r *ContactsRepo) GetByIDForOwner(ctx context.Context, id, ownerID string) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.get_by_id_for_owner", func() error {
		var e error
		c, e = scanContact(r.db.QueryRowContext(ctx,
			`SELECT `+contactColumns+` FROM contacts WHERE id = ? AND user_id = ?`, id, ownerID))
		return e
	})

	return c, mapContactErr("get contact", err)
}

func (r *ContactsRepo) Update(ctx context.Context, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	var c contact.Contact

	err := r.observe("contacts.update", func() error {
		var e error
		c, e = scanContact(r.db.QueryRowContext(ctx,
			`UPDATE contacts
			SET name  = COALESCE(?, name),
			    email = COALESCE(?, email),
			    phone = COALESCE(?, phone),
			    type  = COALESCE(?, type)
			WHERE id = ?
			RETURNING `+contactColumns,
			req.Name, req.Email, req.Phone, req.Type, id,
		))
		return e
	})

	return c, mapContactErr("update contact", err)
}

func (r *ContactsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("contacts.delete", func() error {
		res, e := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
		if e != nil {
			return e
		}
		affected, e = res.RowsAffected()
		return e
	})

	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	if affected == 0 {
		return contact.ErrNotFound
	}

	return nil
}

func scanContact(row rowScanner) (contact.Contact, error) {
	var (
		c    contact.Contact
		date int64
	)

	if err := row.Scan(&c.ID, &c.User, &c.Name, &c.Email, &c.Phone, &c.Type, &date); err != nil {
		return contact.Contact{}, err
	}

	c.Date = fromMillis(date)
	return c, nil
}

func mapContactErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return contact.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
