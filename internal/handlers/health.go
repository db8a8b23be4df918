package handlers

import (
	"context"
	"time"

	"paytrack/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const (
	Version            = "1.0.0"
	healthCheckTimeout = 2 * time.Second
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthHandler reports the state of the store and the event bus.
type HealthHandler struct {
	checks map[string]Checker
	stats  func() interface{}
}

// NewHealthHandler creates a HealthHandler. A nil checker marks the dependency as disabled.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// WithStats adds the result of stats to every health response under "metrics".
func (h *HealthHandler) WithStats(stats func() interface{}) *HealthHandler {
	h.stats = stats
	return h
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	healthy := true
	services := fiber.Map{}
	for name, check := range h.checks {
		switch {
		case check == nil:
			services[name] = "disabled"
		case check(ctx) != nil:
			services[name] = "unavailable"
			healthy = false
		default:
			services[name] = "connected"
		}
	}

	body := fiber.Map{
		"status":   "ok",
		"version":  Version,
		"services": services,
	}
	if h.stats != nil {
		body["metrics"] = h.stats()
	}
	if !healthy {
		body["status"] = "degraded"
		return response.ServiceUnavailable(c, body)
	}
	return response.OK(c, body)
}
