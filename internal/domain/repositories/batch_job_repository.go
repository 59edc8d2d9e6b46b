package repositories

import (
	"context"
	"time"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/google/uuid"
)

// BatchProgress carries the counter deltas persisted while a job runs
type BatchProgress struct {
	TotalMessages     int
	ProcessedMessages int
	FailedMessages    int
	SkippedMessages   int
	TotalTokensUsed   int64
	EstimatedCostUSD  float64
}

// BatchJobRepository defines the interface for batch job data access
type BatchJobRepository interface {
	// Create persists a new running job
	Create(ctx context.Context, job *entities.BatchJob) error

	// FindByID retrieves a job by ID, nil when none exists
	FindByID(ctx context.Context, id uuid.UUID) (*entities.BatchJob, error)

	// FindActive retrieves the running job whose lease heartbeat is fresher
	// than staleAfter, nil when no live job exists
	FindActive(ctx context.Context, staleAfter time.Duration) (*entities.BatchJob, error)

	// UpdateProgress writes counters and bumps the lease heartbeat
	UpdateProgress(ctx context.Context, id uuid.UUID, progress BatchProgress) error

	// MarkCompleted finalizes a job with its last counters
	MarkCompleted(ctx context.Context, id uuid.UUID, progress BatchProgress) error

	// MarkFailed finalizes a job with the error that stopped it
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// MarkCancelled finalizes a running job as cancelled. Returns
	// entities.ErrBatchJobFinished when the job is already terminal.
	MarkCancelled(ctx context.Context, id uuid.UUID) error

	// ListRecent retrieves the most recently started jobs
	ListRecent(ctx context.Context, limit int) ([]*entities.BatchJob, error)

	// FailStale marks running jobs with expired heartbeats as failed and
	// returns how many were swept
	FailStale(ctx context.Context, staleAfter time.Duration) (int64, error)
}
