package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/contactkeeper/internal/config"
	"github.com/geocoder89/contactkeeper/internal/domain/user"
	"github.com/geocoder89/contactkeeper/internal/http/middlewares"
	"github.com/geocoder89/contactkeeper/internal/security"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users  UserReader
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAuthHandler(users UserReader, tokens TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

// Login handles POST /auth. Unknown email and wrong password share the
// invalid_credentials code but keep distinct messages.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequest(ctx, "invalid_credentials", fmt.Sprintf("User with email '%s' does not exist", req.Email))
			return
		}

		RespondInternal(ctx, h.log, "login: lookup user", err)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondBadRequest(ctx, "invalid_credentials", "Password does not match")
		return
	}

	token, err := h.tokens.IssueForLogin(foundUser.ID)

	if err != nil {
		RespondInternal(ctx, h.log, "login: issue token", err)
		return
	}

	RespondToken(ctx, token)
}

// Me handles GET /auth and returns the caller without the password hash.
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondOK(ctx, nil)
			return
		}

		RespondInternal(ctx, h.log, "me: get user", err)
		return
	}

	RespondOK(ctx, u)
}
