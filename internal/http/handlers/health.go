package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck is a named dependency probed by /readyz.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	log    *slog.Logger
	checks []ReadinessCheck
}

// create a new instance of the health handler
func NewHealthHandler(log *slog.Logger, checks ...ReadinessCheck) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{log: log, checks: checks}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	failed := []string{}

	// ping errors carry hosts and users; they go to the log only
	for _, check := range h.checks {
		if check.Ping == nil {
			continue
		}
		if err := check.Ping(cctx); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "readiness check failed", "check", check.Name, "err", err)
			failed = append(failed, check.Name)
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failed": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Welcome answers GET /.
func Welcome(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"msg": "Welcome to Contact Keeper API"})
}
