package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/contactkeeper/internal/actorctx"
	"github.com/geocoder89/contactkeeper/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type AuthMiddleware struct {
	jwt    TokenVerifier
	header string
}

// NewAuthMiddleware reads tokens from header. Authorization: Bearer is
// always accepted as a fallback.
func NewAuthMiddleware(jwt TokenVerifier, header string) *AuthMiddleware {
	if header == "" {
		header = "Authorization"
	}
	return &AuthMiddleware{jwt: jwt, header: header}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := m.extractToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    "no_token",
				"message": "No token, authorization denied",
			})
			return
		}

		userID, err := m.jwt.Verify(raw)
		if err != nil {
			code := "invalid_token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = "token_expired"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    code,
				"message": "Token is not valid",
			})
			return
		}

		// Stash identity on both the gin and the request context
		c.Set(CtxUserID, userID)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	if v := bearerOrRaw(c.GetHeader(m.header)); v != "" {
		return v
	}

	if !strings.EqualFold(m.header, "Authorization") {
		return bearerOrRaw(c.GetHeader("Authorization"))
	}

	return ""
}

func bearerOrRaw(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v
}

// Optional helper so handlers don’t need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return actorctx.UserIDFrom(c.Request.Context())
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
