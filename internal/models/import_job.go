package models

import "time"

// ImportJob is one bulk-add run against a single group
type ImportJob struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	GroupID   string `json:"group_id" gorm:"index;not null"`
	GroupName string `json:"group_name"`

	// Counters; Success + Failed == Current <= Total
	Total   int `json:"total"`
	Current int `json:"current"`
	Success int `json:"success"`
	Failed  int `json:"failed"`

	Status string `json:"status" gorm:"index"` // "running", "completed", "cancelled", "aborted"
	Error  string `json:"error,omitempty"`

	// Numbers is the deduplicated, normalized target list. Not persisted.
	Numbers []string `json:"numbers,omitempty" gorm:"-"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across renames
func (ImportJob) TableName() string {
	return "import_jobs"
}

// Remaining returns how many numbers are still to be processed
func (j *ImportJob) Remaining() int {
	return j.Total - j.Current
}

// Clone returns a copy safe to hand to other goroutines
func (j *ImportJob) Clone() *ImportJob {
	if j == nil {
		return nil
	}
	c := *j
	c.Numbers = append([]string(nil), j.Numbers...)
	if j.FinishedAt != nil {
		finished := *j.FinishedAt
		c.FinishedAt = &finished
	}
	return &c
}

// ImportJob status constants
const (
	ImportStatusRunning   = "running"
	ImportStatusCompleted = "completed"
	ImportStatusCancelled = "cancelled"
	ImportStatusAborted   = "aborted"
)
