package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/contactkeeper/internal/cache"
	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/domain/contact"
	"github.com/geocoder89/contactkeeper/internal/http/middlewares"
	"github.com/geocoder89/contactkeeper/internal/utils"
	"github.com/gin-gonic/gin"
)

type ContactsStore interface {
	Create(ctx context.Context, req contact.CreateContactRequest, ownerID string) (contact.Contact, error)
	ListByOwner(ctx context.Context, ownerID string) ([]contact.Contact, error)
	GetByID(ctx context.Context, id string) (contact.Contact, error)
	GetByIDForOwner(ctx context.Context, id, ownerID string) (contact.Contact, error)
	Update(ctx context.Context, id string, req contact.UpdateContactRequest) (contact.Contact, error)
	Delete(ctx context.Context, id string) error
}

type ContactsHandler struct {
	repo  ContactsStore
	lists cache.ContactLists
	log   *slog.Logger
}

func NewContactsHandler(repo ContactsStore, log *slog.Logger) *ContactsHandler {
	return &ContactsHandler{repo: repo, log: log}
}

func NewContactsHandlerWithCache(repo ContactsStore, lists cache.ContactLists, log *slog.Logger) *ContactsHandler {
	return &ContactsHandler{repo: repo, lists: lists, log: log}
}

func (h *ContactsHandler) ListContacts(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	// The generation is read before the store so a write that lands in
	// between leaves this list under a generation nobody reads again.
	var (
		gen       uint64
		cacheable bool
	)
	if h.lists != nil {
		g, err := h.lists.Generation(cctx, userID)
		if err == nil {
			gen, cacheable = g, true
			if list, hit := h.lists.Get(cctx, userID, gen); hit {
				respondContactList(ctx, list)
				return
			}
		}
	}

	list, err := h.repo.ListByOwner(cctx, userID)

	if err != nil {
		RespondInternal(ctx, h.log, "contacts: list", err)
		return
	}

	if cacheable {
		h.lists.Set(cctx, userID, gen, list)
	}

	respondContactList(ctx, list)
}

// GetContactByID only returns contacts owned by the caller; anything else
// is reported as not found.
func (h *ContactsHandler) GetContactByID(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, notFoundMessage(id))
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	c, err := h.repo.GetByIDForOwner(cctx, id, userID)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, notFoundMessage(id))
			return
		}
		RespondInternal(ctx, h.log, "contacts: get", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"success": true, "data": c})
}

func (h *ContactsHandler) CreateContact(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req contact.CreateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, req, userID)

	if err != nil {
		RespondInternal(ctx, h.log, "contacts: create", err)
		return
	}

	h.invalidate(ctx, userID)

	RespondOK(ctx, c)
}

// UpdateContact merges only the supplied, non-empty fields.
func (h *ContactsHandler) UpdateContact(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	var req contact.UpdateContactRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req = req.Normalize()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	existing, ok := h.loadOwned(ctx, cctx, id, userID, notFoundMessage(id))
	if !ok {
		return
	}

	if req.IsEmpty() {
		RespondOK(ctx, existing)
		return
	}

	updated, err := h.repo.Update(cctx, id, req)

	if err != nil {
		// deleted between the ownership check and the update
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, notFoundMessage(id))
			return
		}
		RespondInternal(ctx, h.log, "contacts: update", err)
		return
	}

	h.invalidate(ctx, userID)

	RespondOK(ctx, updated)
}

func (h *ContactsHandler) DeleteContact(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if _, ok := h.loadOwned(ctx, cctx, id, userID, "Contact not found"); !ok {
		return
	}

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Contact not found")
			return
		}
		RespondInternal(ctx, h.log, "contacts: delete", err)
		return
	}

	h.invalidate(ctx, userID)

	RespondMessage(ctx, "Contact removed")
}

// loadOwned fetches id and checks the caller owns it, answering the
// request itself when it does not.
func (h *ContactsHandler) loadOwned(ctx *gin.Context, cctx context.Context, id, userID, notFound string) (contact.Contact, bool) {
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, notFound)
		return contact.Contact{}, false
	}

	c, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, notFound)
			return contact.Contact{}, false
		}
		RespondInternal(ctx, h.log, "contacts: load", err)
		return contact.Contact{}, false
	}

	// Make sure user owns contact
	if c.User != userID {
		RespondForbidden(ctx)
		return contact.Contact{}, false
	}

	return c, true
}

// invalidate is detached from the request; the write it follows has
// already committed even if the client hung up.
func (h *ContactsHandler) invalidate(ctx *gin.Context, userID string) {
	if h.lists == nil {
		return
	}

	ictx, cancel := config.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 2*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = h.lists.Invalidate(ictx, userID); err == nil {
			return
		}
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}
	log.WarnContext(ctx.Request.Context(), "contacts: invalidate list cache",
		"err", err,
		"request_id", requestIDFrom(ctx),
	)
}

func requireUser(ctx *gin.Context) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return "", false
	}
	return userID, true
}

func respondContactList(ctx *gin.Context, list []contact.Contact) {
	if list == nil {
		list = []contact.Contact{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"success": true,
		"count":   len(list),
		"data":    list,
	})
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("No contact found with the id %s", id)
}
