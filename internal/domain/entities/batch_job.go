package entities

import (
	"time"

	"github.com/google/uuid"
)

// BatchJobStatus represents the lifecycle state of a batch analysis job
type BatchJobStatus string

const (
	BatchJobStatusRunning   BatchJobStatus = "running"   // Job is walking messages
	BatchJobStatusCompleted BatchJobStatus = "completed" // All candidate messages were walked
	BatchJobStatusFailed    BatchJobStatus = "failed"    // Setup failed or the runner lease went stale
	BatchJobStatusCancelled BatchJobStatus = "cancelled" // Operator cancelled mid-run
)

// IsTerminal reports whether the status is final
func (s BatchJobStatus) IsTerminal() bool {
	return s == BatchJobStatusCompleted || s == BatchJobStatusFailed || s == BatchJobStatusCancelled
}

// BatchJob is a persisted batch sentiment-analysis run over stored messages.
// The Owner/HeartbeatAt pair is a lease: the runner that created the job
// heartbeats while working, and a running row with an expired heartbeat is
// an orphan that the janitor marks failed. A job moves from running to
// exactly one of completed, failed or cancelled and never leaves a terminal
// state; failed jobs are not retried.
type BatchJob struct {
	ID     uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Status BatchJobStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'running'"`

	// Selection filters recorded for audit
	SessionID   *uuid.UUID `json:"session_id,omitempty" gorm:"type:uuid;index"`
	StartDate   *time.Time `json:"start_date,omitempty" gorm:"type:timestamp"`
	EndDate     *time.Time `json:"end_date,omitempty" gorm:"type:timestamp"`
	MaxMessages int        `json:"max_messages" gorm:"type:integer;default:0"`

	// Progress counters
	TotalMessages     int     `json:"total_messages" gorm:"type:integer;default:0"`
	ProcessedMessages int     `json:"processed_messages" gorm:"type:integer;default:0"`
	FailedMessages    int     `json:"failed_messages" gorm:"type:integer;default:0"`
	SkippedMessages   int     `json:"skipped_messages" gorm:"type:integer;default:0"`
	TotalTokensUsed   int64   `json:"total_tokens_used" gorm:"type:bigint;default:0"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd" gorm:"default:0"`

	// Runner lease
	Owner       uuid.UUID `json:"owner" gorm:"type:uuid;not null"`
	HeartbeatAt time.Time `json:"heartbeat_at" gorm:"type:timestamp;not null"`

	LastError   *string    `json:"last_error,omitempty" gorm:"type:text"`
	StartedAt   time.Time  `json:"started_at" gorm:"type:timestamp;not null"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (BatchJob) TableName() string {
	return "batch_jobs"
}

// NewBatchJob creates a running job owned by the given runner instance
func NewBatchJob(owner uuid.UUID, sessionID *uuid.UUID, startDate, endDate *time.Time, maxMessages int) *BatchJob {
	now := time.Now()
	return &BatchJob{
		ID:          uuid.New(),
		Status:      BatchJobStatusRunning,
		SessionID:   sessionID,
		StartDate:   startDate,
		EndDate:     endDate,
		MaxMessages: maxMessages,
		Owner:       owner,
		HeartbeatAt: now,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// LeaseFresh reports whether the runner heartbeat is younger than staleAfter
func (j *BatchJob) LeaseFresh(staleAfter time.Duration) bool {
	return time.Since(j.HeartbeatAt) < staleAfter
}

// MarkAsCompleted finalizes the job after the last message was walked
func (j *BatchJob) MarkAsCompleted() {
	j.Status = BatchJobStatusCompleted
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed finalizes the job with the error that stopped it
func (j *BatchJob) MarkAsFailed(errMsg string) {
	j.Status = BatchJobStatusFailed
	j.LastError = &errMsg
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsCancelled finalizes the job after an operator cancellation
func (j *BatchJob) MarkAsCancelled() {
	j.Status = BatchJobStatusCancelled
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// BatchResult is the counter snapshot returned by a finished run
type BatchResult struct {
	JobID             uuid.UUID `json:"job_id"`
	TotalMessages     int       `json:"total_messages"`
	ProcessedMessages int       `json:"processed_messages"`
	FailedMessages    int       `json:"failed_messages"`
	SkippedMessages   int       `json:"skipped_messages"`
	TotalTokensUsed   int64     `json:"total_tokens_used"`
	EstimatedCostUSD  float64   `json:"estimated_cost_usd"`
}
