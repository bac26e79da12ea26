package storage

import (
	"context"

	"gateprobe/internal/storage/models"
)

// Storage defines the interface for run history persistence
type Storage interface {
	// Run operations
	CreateRun(ctx context.Context, run *models.Run) error
	FinishRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, idOrPrefix string) (*models.Run, error)
	GetRecentRuns(ctx context.Context, filter RunFilter) ([]*models.Run, error)

	// Attempt operations
	RecordAttempt(ctx context.Context, attempt *models.Attempt) error
	GetAttempts(ctx context.Context, runID string) ([]*models.Attempt, error)

	// Close closes the storage connection
	Close() error
}

// RunFilter represents filters for querying runs
type RunFilter struct {
	Host  *string
	Port  *int
	Limit int // 0 means no limit
}
