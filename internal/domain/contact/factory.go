package contact

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds a new contact owned by ownerID. Ids are
// UUIDv7 so that contacts created in the same instant still sort by
// creation order.
func NewFromCreateRequest(req CreateContactRequest, ownerID string) Contact {
	t := req.Type
	if t == "" {
		t = DefaultType
	}

	return Contact{
		ID:    newID(),
		User:  ownerID,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Type:  t,
		Date:  time.Now().UTC(),
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
