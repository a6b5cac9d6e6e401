package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/start-service/internal/middleware"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/labstack/echo/v4"
)

const defaultCheckTimeout = 5 * time.Second

// HealthHandler serves GET /status.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type dependencyCheck struct {
	name string
	// critical checks make the service unhealthy when they fail
	critical bool
	ping     func(ctx context.Context) error
}

// checks returns the dependency checks enabled for this deployment. The
// database is only checked on the postgres driver.
func (h *HealthHandler) checks() []dependencyCheck {
	cfg := h.server.Config.Observability
	enabled := func(name string) bool {
		return cfg == nil || cfg.CheckEnabled(name)
	}

	var checks []dependencyCheck
	if h.server.DB != nil && enabled("database") {
		checks = append(checks, dependencyCheck{name: "database", critical: true, ping: h.server.DB.Ping})
	}
	if h.server.Redis != nil && enabled("redis") {
		checks = append(checks, dependencyCheck{name: "redis", ping: func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		}})
	}
	return checks
}

// CheckHealth reports the service status and its dependency checks. It
// answers 503 when a critical dependency is down. Redis is reported but
// not critical.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	timeout := defaultCheckTimeout
	if cfg := h.server.Config.Observability; cfg != nil && cfg.HealthChecks.Timeout > 0 {
		timeout = cfg.HealthChecks.Timeout
	}

	results := make(map[string]any)
	isHealthy := true

	for _, check := range h.checks() {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		checkStart := time.Now()
		err := check.ping(ctx)
		cancel()
		elapsed := time.Since(checkStart)

		if err != nil {
			results[check.name] = map[string]any{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}
			if check.critical {
				isHealthy = false
			}

			logger.Error().
				Err(err).
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordHealthError(check.name, check.name+"_unhealthy", map[string]any{
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
			continue
		}

		results[check.name] = map[string]any{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}
		logger.Debug().
			Str("check", check.name).
			Dur("response_time", elapsed).
			Msg("health check passed")
	}

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"driver":      h.server.Config.App.Driver,
		"checks":      results,
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")
		h.recordHealthError("overall", "overall_unhealthy", map[string]any{
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordHealthError(checkType, errorType string, attrs map[string]any) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	event := map[string]any{
		"check_type": checkType,
		"operation":  "health_check",
		"error_type": errorType,
	}
	for k, v := range attrs {
		event[k] = v
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", event)
}
