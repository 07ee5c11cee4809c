package handlers

import (
	"context"
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
	"github.com/Ananth-NQI/wa-group-importer/internal/services"
	"github.com/Ananth-NQI/wa-group-importer/internal/storage"
)

// ImportController is the part of ImportRunner exposed over HTTP
type ImportController interface {
	Start(ctx context.Context, req services.ImportRequest) (*models.ImportJob, error)
	Cancel() error
	Current() (*models.ImportJob, bool)
}

// ImportHandler handles import jobs and their results
type ImportHandler struct {
	imports    ImportController
	store      storage.Store
	ledgerPath string
}

// NewImportHandler creates a new import handler
func NewImportHandler(imports ImportController, store storage.Store, ledgerPath string) *ImportHandler {
	return &ImportHandler{
		imports:    imports,
		store:      store,
		ledgerPath: ledgerPath,
	}
}

// StartImport validates the request and starts a background job
func (h *ImportHandler) StartImport(c *fiber.Ctx) error {
	var req services.ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	job, err := h.imports.Start(c.UserContext(), req)
	if err != nil {
		return c.Status(importErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Import started",
		"job":     job,
	})
}

func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrImportInProgress), errors.Is(err, services.ErrSessionNotReady):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrNoValidNumbers), errors.Is(err, services.ErrNotAGroup),
		errors.Is(err, services.ErrGroupRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrGroupNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrSessionExpired):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// CancelImport stops the running job
func (h *ImportHandler) CancelImport(c *fiber.Ctx) error {
	if err := h.imports.Cancel(); err != nil {
		if errors.Is(err, services.ErrNoActiveImport) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Cancelling import",
	})
}

// ListImports returns the running job and the most recent history
func (h *ImportHandler) ListImports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	jobs, err := h.store.ListImportJobs(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve imports",
		})
	}

	response := fiber.Map{
		"jobs":  jobs,
		"count": len(jobs),
	}
	if current, ok := h.imports.Current(); ok {
		response["current"] = current
	}
	return c.JSON(response)
}

// GetImport returns one job from history
func (h *ImportHandler) GetImport(c *fiber.Ctx) error {
	job, err := h.store.GetImportJob(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Import not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve import"})
	}

	return c.JSON(job)
}

// GetImportResults returns the per-number outcomes of one job
func (h *ImportHandler) GetImportResults(c *fiber.Ctx) error {
	results, err := h.store.GetImportResults(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Import not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve results"})
	}

	return c.JSON(fiber.Map{
		"results": results,
		"count":   len(results),
	})
}

// DownloadResults serves the CSV ledger of the latest job
func (h *ImportHandler) DownloadResults(c *fiber.Ctx) error {
	if _, err := os.Stat(h.ledgerPath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No results yet",
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Download(h.ledgerPath, "results.csv")
}
