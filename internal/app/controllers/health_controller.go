package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports liveness and readiness
type HealthController struct {
	checks map[string]Pinger
	logger zerolog.Logger
}

// NewHealthController creates a new HealthController. checks are probed by
// the readiness endpoint, keyed by the name reported in the response.
func NewHealthController(checks map[string]Pinger, logger zerolog.Logger) *HealthController {
	return &HealthController{checks: checks, logger: logger}
}

// Health reports that the process is up
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// Ready probes the database and the cache
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (c *HealthController) Ready(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(c.checks))
	for name, check := range c.checks {
		if err := check.Ping(probeCtx); err != nil {
			c.logger.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	ready := "ready"
	if status != http.StatusOK {
		ready = "not ready"
	}
	ctx.JSON(status, gin.H{"status": ready, "checks": results})
}
