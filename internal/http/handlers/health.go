package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

// DependencyCheck probes one backing store. Optional dependencies (the
// bridge cache, for example) degrade the report without failing it.
type DependencyCheck struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) bool
}

type HealthHandler struct {
	log    *logger.Logger
	checks []DependencyCheck
}

func NewHealthHandler(log *logger.Logger, checks []DependencyCheck) *HealthHandler {
	return &HealthHandler{log: log, checks: checks}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	healthy := true
	for _, chk := range h.checks {
		if chk.Check(ctx) {
			deps[chk.Name] = "ok"
			continue
		}
		deps[chk.Name] = "down"
		if !chk.Optional {
			healthy = false
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}
