package contact

import (
	"errors"
	"time"
)

const DefaultType = "personal"

var ErrNotFound = errors.New("contact not found")

type Contact struct {
	ID    string    `json:"id"`
	User  string    `json:"user"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
	Type  string    `json:"type"`
	Date  time.Time `json:"date"`
}

type CreateContactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

// UpdateContactRequest is a partial update: nil fields are left untouched.
type UpdateContactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Type  *string `json:"type"`
}

// Normalize drops empty strings so that "" behaves like an absent field.
func (r UpdateContactRequest) Normalize() UpdateContactRequest {
	return UpdateContactRequest{
		Name:  nonEmpty(r.Name),
		Email: nonEmpty(r.Email),
		Phone: nonEmpty(r.Phone),
		Type:  nonEmpty(r.Type),
	}
}

func (r UpdateContactRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Type == nil
}

// Apply merges the supplied fields into c.
func (r UpdateContactRequest) Apply(c Contact) Contact {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Type != nil {
		c.Type = *r.Type
	}
	return c
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
