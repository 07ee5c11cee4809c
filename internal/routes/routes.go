package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ananth-NQI/wa-group-importer/internal/handlers"
	"github.com/Ananth-NQI/wa-group-importer/internal/middleware"
)

// Handlers groups everything the router needs
type Handlers struct {
	Session *handlers.SessionHandler
	Imports *handlers.ImportHandler
	Events  *handlers.EventsHandler
	Health  *handlers.HealthHandler
	Version string
	APIKey  string
	// Metrics is served at /metrics when set
	Metrics prometheus.Gatherer
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "WhatsApp Group Importer",
			"version": h.Version,
			"endpoints": fiber.Map{
				"health":  "/health",
				"metrics": "/metrics",
				"api":     "/api",
				"events":  "/api/events",
			},
		})
	})

	app.Get("/health", h.Health.Check)

	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics, promhttp.HandlerOpts{})))
	}

	// API routes
	api := app.Group("/api", middleware.RequireAPIKey(h.APIKey))

	// Session
	api.Get("/session", h.Session.GetSession)
	api.Post("/session/disconnect", h.Session.Disconnect)
	api.Get("/groups", h.Session.GetGroups)

	// Imports
	imports := api.Group("/imports")
	imports.Post("/", h.Imports.StartImport)
	imports.Post("/cancel", h.Imports.CancelImport)
	imports.Get("/", h.Imports.ListImports)
	imports.Get("/results.csv", h.Imports.DownloadResults)
	imports.Get("/:id", h.Imports.GetImport)
	imports.Get("/:id/results", h.Imports.GetImportResults)

	// Server-sent events
	api.Get("/events", h.Events.Stream)
}
