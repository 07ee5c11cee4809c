package utils

import "github.com/google/uuid"

// NewJobID generates a unique identifier for an import job
func NewJobID() string {
	return uuid.NewString()
}
