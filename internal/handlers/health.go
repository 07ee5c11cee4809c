package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports whether one dependency is usable
type HealthCheck func() error

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	sessions SessionSnapshotter
	checks   map[string]HealthCheck
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions SessionSnapshotter, checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{
		Version:  version,
		sessions: sessions,
		checks:   checks,
	}
}

// Check returns the health status of the service. A session that is not
// ready does not make the service unhealthy.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	deps := fiber.Map{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			deps[name] = "error: " + err.Error()
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	snap := h.sessions.Snapshot()
	return c.Status(statusCode).JSON(fiber.Map{
		"status":   status,
		"service":  "WhatsApp Group Importer",
		"version":  h.Version,
		"whatsapp": snap.State,
		"services": deps,
	})
}
