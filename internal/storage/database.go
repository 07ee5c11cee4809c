package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// DatabaseStore persists job history through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store on an already migrated connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Migrate creates or updates the history tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ImportJob{}, &models.ImportResult{})
}

// Import job operations
func (d *DatabaseStore) CreateImportJob(job *models.ImportJob) error {
	return d.db.Create(job).Error
}

func (d *DatabaseStore) UpdateImportJob(job *models.ImportJob) error {
	result := d.db.Model(&models.ImportJob{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"group_name":  job.GroupName,
		"total":       job.Total,
		"current":     job.Current,
		"success":     job.Success,
		"failed":      job.Failed,
		"status":      job.Status,
		"error":       job.Error,
		"finished_at": job.FinishedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (d *DatabaseStore) GetImportJob(id string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := d.db.First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListImportJobs returns the newest jobs first
func (d *DatabaseStore) ListImportJobs(limit int) ([]*models.ImportJob, error) {
	var jobs []*models.ImportJob
	query := d.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Result operations
func (d *DatabaseStore) AddImportResult(result *models.ImportResult) error {
	return d.db.Create(result).Error
}

func (d *DatabaseStore) GetImportResults(jobID string) ([]*models.ImportResult, error) {
	if _, err := d.GetImportJob(jobID); err != nil {
		return nil, err
	}

	var results []*models.ImportResult
	if err := d.db.Where("job_id = ?", jobID).Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
