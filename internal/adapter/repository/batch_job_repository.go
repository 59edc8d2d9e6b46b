package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

const staleLeaseError = "stale lease: runner heartbeat expired"

// batchJobRepository implements the BatchJobRepository interface. Every
// finalizer is guarded on status = running so a terminal row is never
// rewritten, whichever instance gets there last.
type batchJobRepository struct {
	db *gorm.DB
}

// NewBatchJobRepository creates a new batch job repository
func NewBatchJobRepository(db *gorm.DB) repositories.BatchJobRepository {
	return &batchJobRepository{db: db}
}

// Create persists a new running job
func (r *batchJobRepository) Create(ctx context.Context, job *entities.BatchJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID retrieves a job by ID
func (r *batchJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.BatchJob, error) {
	var job entities.BatchJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindActive retrieves the running job whose lease heartbeat is fresher
// than staleAfter
func (r *batchJobRepository) FindActive(ctx context.Context, staleAfter time.Duration) (*entities.BatchJob, error) {
	var job entities.BatchJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND heartbeat_at > ?", entities.BatchJobStatusRunning, time.Now().Add(-staleAfter)).
		Order("started_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// UpdateProgress writes counters and bumps the lease heartbeat
func (r *batchJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress repositories.BatchProgress) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.BatchJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_messages":     progress.TotalMessages,
			"processed_messages": progress.ProcessedMessages,
			"failed_messages":    progress.FailedMessages,
			"skipped_messages":   progress.SkippedMessages,
			"total_tokens_used":  progress.TotalTokensUsed,
			"estimated_cost_usd": progress.EstimatedCostUSD,
			"heartbeat_at":       now,
			"updated_at":         now,
		}).Error
}

// MarkCompleted finalizes a running job with its last counters
func (r *batchJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, progress repositories.BatchProgress) error {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&entities.BatchJob{}).
		Where("id = ? AND status = ?", id, entities.BatchJobStatusRunning).
		Updates(map[string]interface{}{
			"status":             entities.BatchJobStatusCompleted,
			"total_messages":     progress.TotalMessages,
			"processed_messages": progress.ProcessedMessages,
			"failed_messages":    progress.FailedMessages,
			"skipped_messages":   progress.SkippedMessages,
			"total_tokens_used":  progress.TotalTokensUsed,
			"estimated_cost_usd": progress.EstimatedCostUSD,
			"completed_at":       now,
			"updated_at":         now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return r.finalizeMiss(ctx, id)
	}
	return nil
}

// MarkFailed finalizes a running job with the error that stopped it
func (r *batchJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&entities.BatchJob{}).
		Where("id = ? AND status = ?", id, entities.BatchJobStatusRunning).
		Updates(map[string]interface{}{
			"status":       entities.BatchJobStatusFailed,
			"last_error":   errMsg,
			"completed_at": now,
			"updated_at":   now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return r.finalizeMiss(ctx, id)
	}
	return nil
}

// MarkCancelled finalizes a running job as cancelled
func (r *batchJobRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&entities.BatchJob{}).
		Where("id = ? AND status = ?", id, entities.BatchJobStatusRunning).
		Updates(map[string]interface{}{
			"status":       entities.BatchJobStatusCancelled,
			"completed_at": now,
			"updated_at":   now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return r.finalizeMiss(ctx, id)
	}
	return nil
}

// finalizeMiss tells apart a missing row from an already-terminal one
func (r *batchJobRepository) finalizeMiss(ctx context.Context, id uuid.UUID) error {
	job, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return entities.ErrBatchJobNotFound
	}
	return entities.ErrBatchJobFinished
}

// ListRecent retrieves the most recently started jobs
func (r *batchJobRepository) ListRecent(ctx context.Context, limit int) ([]*entities.BatchJob, error) {
	var jobs []*entities.BatchJob
	if limit <= 0 {
		limit = 20
	}
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FailStale marks running jobs with expired heartbeats as failed
func (r *batchJobRepository) FailStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&entities.BatchJob{}).
		Where("status = ? AND heartbeat_at <= ?", entities.BatchJobStatusRunning, now.Add(-staleAfter)).
		Updates(map[string]interface{}{
			"status":       entities.BatchJobStatusFailed,
			"last_error":   staleLeaseError,
			"completed_at": now,
			"updated_at":   now,
		})
	return tx.RowsAffected, tx.Error
}
