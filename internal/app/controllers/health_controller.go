package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models/dto"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// HealthController reports whether the service dependencies are reachable
type HealthController struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHealthController creates a HealthController running the given named checks
func NewHealthController(checks map[string]HealthCheck, logger zerolog.Logger) *HealthController {
	return &HealthController{
		checks:  checks,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Health runs every check
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "All dependencies reachable"
// @Failure 503 {object} dto.HealthResponse "A dependency is down"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.timeout)
	defer cancel()

	resp := dto.HealthResponse{Status: "UP", Checks: make(map[string]string, len(c.checks))}
	status := http.StatusOK
	for name, check := range c.checks {
		if err := check(checkCtx); err != nil {
			c.logger.Warn().Err(err).Str("check", name).Msg("Health check failed")
			resp.Checks[name] = "DOWN"
			resp.Status = "DOWN"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "UP"
	}
	resp.Duration = time.Since(start).String()

	ctx.JSON(status, resp)
}
