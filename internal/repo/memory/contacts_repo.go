package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/contactkeeper/internal/domain/contact"
)

type ContactsRepo struct {
	mu    sync.RWMutex
	items map[string]contact.Contact
}

func NewContactsRepo() *ContactsRepo {
	return &ContactsRepo{
		items: make(map[string]contact.Contact),
	}
}

func (r *ContactsRepo) Create(ctx context.Context, req contact.CreateContactRequest, ownerID string) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}

	c := contact.NewFromCreateRequest(req, ownerID)

	r.mu.Lock()
	r.items[c.ID] = c
	r.mu.Unlock()

	return c, nil
}

// ListByOwner returns the owner's contacts, newest first.
func (r *ContactsRepo) ListByOwner(ctx context.Context, ownerID string) ([]contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]contact.Contact, 0)
	for _, c := range r.items {
		if c.User == ownerID {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})

	return out, nil
}

func (r *ContactsRepo) GetByID(ctx context.Context, id string) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return contact.Contact{}, contact.ErrNotFound
	}
	return c, nil
}

func (r *ContactsRepo) GetByIDForOwner(ctx context.Context, id, ownerID string) (contact.Contact, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return contact.Contact{}, err
	}
	if c.User != ownerID {
		return contact.Contact{}, contact.ErrNotFound
	}
	return c, nil
}

func (r *ContactsRepo) Update(ctx context.Context, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return contact.Contact{}, contact.ErrNotFound
	}

	c = req.Apply(c)
	r.items[id] = c

	return c, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return contact.ErrNotFound
	}
	delete(r.items, id)

	return nil
}
