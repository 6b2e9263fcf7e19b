package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/domain/user"
	"github.com/geocoder89/contactkeeper/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
}

type TokenIssuer interface {
	IssueForRegistration(userID string) (string, error)
	IssueForLogin(userID string) (string, error)
}

type UsersHandler struct {
	users      UserReader
	userWriter UserWriter
	tokens     TokenIssuer
	log        *slog.Logger
}

func NewUsersHandler(users UserReader, userWriter UserWriter, tokens TokenIssuer, log *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:      users,
		userWriter: userWriter,
		tokens:     tokens,
		log:        log,
	}
}

// Register handles POST /users.
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	_, err := h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondBadRequest(ctx, "user_exists", "User already exists")
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, h.log, "register: lookup user", err)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, h.log, "register: hash password", err)
		return
	}

	u, err := h.userWriter.Create(cctx, req.Email, hash, req.Name)

	if err != nil {
		// a concurrent registration won the unique index
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "user_exists", "User already exists")
			return
		}

		RespondInternal(ctx, h.log, "register: create user", err)
		return
	}

	token, err := h.tokens.IssueForRegistration(u.ID)

	if err != nil {
		RespondInternal(ctx, h.log, "register: issue token", err)
		return
	}

	RespondToken(ctx, token)
}
