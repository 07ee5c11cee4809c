package storage

import (
	"errors"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// ErrJobNotFound is returned when an import job id is unknown
var ErrJobNotFound = errors.New("import job not found")

// Store keeps the history of import jobs and their per-number results
type Store interface {
	// Import job operations
	CreateImportJob(job *models.ImportJob) error
	UpdateImportJob(job *models.ImportJob) error
	GetImportJob(id string) (*models.ImportJob, error)
	ListImportJobs(limit int) ([]*models.ImportJob, error)

	// Result operations
	AddImportResult(result *models.ImportResult) error
	GetImportResults(jobID string) ([]*models.ImportResult, error)
}
