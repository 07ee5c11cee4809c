package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// MemoryStore holds job history in memory. Lost on restart.
type MemoryStore struct {
	jobs    map[string]*models.ImportJob
	results map[string][]*models.ImportResult

	// Mutexes for thread safety
	jobMu    sync.RWMutex
	resultMu sync.RWMutex

	resultCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*models.ImportJob),
		results: make(map[string][]*models.ImportResult),
	}
}

// Import job operations
func (m *MemoryStore) CreateImportJob(job *models.ImportJob) error {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()

	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	m.jobs[job.ID] = job.Clone()
	return nil
}

func (m *MemoryStore) UpdateImportJob(job *models.ImportJob) error {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()

	existing, ok := m.jobs[job.ID]
	if !ok {
		return ErrJobNotFound
	}

	job.CreatedAt = existing.CreatedAt
	job.UpdatedAt = time.Now()
	m.jobs[job.ID] = job.Clone()
	return nil
}

func (m *MemoryStore) GetImportJob(id string) (*models.ImportJob, error) {
	m.jobMu.RLock()
	defer m.jobMu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// ListImportJobs returns the newest jobs first
func (m *MemoryStore) ListImportJobs(limit int) ([]*models.ImportJob, error) {
	m.jobMu.RLock()
	defer m.jobMu.RUnlock()

	jobs := make([]*models.ImportJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Result operations
func (m *MemoryStore) AddImportResult(result *models.ImportResult) error {
	m.jobMu.RLock()
	_, ok := m.jobs[result.JobID]
	m.jobMu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}

	m.resultMu.Lock()
	defer m.resultMu.Unlock()

	m.resultCounter++
	stored := *result
	stored.ID = m.resultCounter
	result.ID = stored.ID
	m.results[result.JobID] = append(m.results[result.JobID], &stored)
	return nil
}

func (m *MemoryStore) GetImportResults(jobID string) ([]*models.ImportResult, error) {
	m.jobMu.RLock()
	_, ok := m.jobs[jobID]
	m.jobMu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}

	m.resultMu.RLock()
	defer m.resultMu.RUnlock()

	stored := m.results[jobID]
	results := make([]*models.ImportResult, 0, len(stored))
	for _, r := range stored {
		c := *r
		results = append(results, &c)
	}
	return results, nil
}
