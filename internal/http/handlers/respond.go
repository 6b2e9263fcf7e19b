package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/contactkeeper/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Every response uses the {success, data|token|message|errors} envelope.

type APIError struct {
	Success   bool         `json:"success"`
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
	RequestID string       `json:"requestId,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func RespondToken(ctx *gin.Context, token string) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

func RespondMessage(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

func RespondError(ctx *gin.Context, status int, code, message string, fields []FieldError) {
	ctx.AbortWithStatusJSON(status, APIError{
		Success:   false,
		Code:      code,
		Message:   message,
		Errors:    fields,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondValidation(ctx *gin.Context, fields []FieldError) {
	RespondError(ctx, http.StatusBadRequest, "validation_error", "Invalid request body", fields)
}

func RespondBadRequest(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

// RespondForbidden answers an ownership failure. The status stays 401 to
// match what existing clients of this API expect.
func RespondForbidden(ctx *gin.Context) {
	RespondError(ctx, http.StatusUnauthorized, "forbidden", "Not authorized", nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondInternal logs err and answers with a generic message.
func RespondInternal(ctx *gin.Context, log *slog.Logger, op string, err error) {
	if log == nil {
		log = slog.Default()
	}
	log.ErrorContext(ctx.Request.Context(), op,
		"err", err,
		"request_id", requestIDFrom(ctx),
	)

	RespondError(ctx, http.StatusInternalServerError, "internal_error", "Server Error", nil)
}
