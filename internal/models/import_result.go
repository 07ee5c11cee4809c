package models

import "time"

// ImportResult is the outcome for one number of a job
type ImportResult struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	JobID       string    `json:"job_id" gorm:"size:36;index;not null"`
	Phone       string    `json:"phone" gorm:"size:32;not null"`
	Status      string    `json:"status" gorm:"size:16;not null"` // "added" or "failed"
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// TableName keeps the table name stable across renames
func (ImportResult) TableName() string {
	return "import_results"
}

// Result status constants
const (
	ResultAdded  = "added"
	ResultFailed = "failed"
)
