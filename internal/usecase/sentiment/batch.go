package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	domainrepo "github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/pkg/config"
	"github.com/chatdesk-team/chatdesk/pkg/jobcontext"
)

// BatchRequest selects the messages a batch run walks
type BatchRequest struct {
	SessionID   *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
	MaxMessages int
}

// Runner owns batch sentiment jobs. One job runs at a time across all
// instances: admission checks an in-process guard plus the lease held by
// any running row, so a second Start fails with ErrBatchAlreadyRunning
// before a row is created.
type Runner interface {
	// Start admits a job and walks it in the background, returning the
	// created row immediately
	Start(ctx context.Context, req BatchRequest) (*entities.BatchJob, error)

	// Run admits a job and walks it synchronously
	Run(ctx context.Context, req BatchRequest) (*entities.BatchResult, error)

	// Cancel finalizes a running job as cancelled and stops its walk.
	// The in-flight message finishes, the next never starts.
	Cancel(ctx context.Context, jobID uuid.UUID) (*entities.BatchJob, error)

	// Get retrieves a job by ID
	Get(ctx context.Context, jobID uuid.UUID) (*entities.BatchJob, error)

	// Active retrieves the job currently holding a fresh lease, nil when idle
	Active(ctx context.Context) (*entities.BatchJob, error)

	// ListRecent retrieves the most recently started jobs
	ListRecent(ctx context.Context, limit int) ([]*entities.BatchJob, error)

	// FailStaleJobs sweeps running jobs whose runner stopped heartbeating.
	// Wired to the cron janitor.
	FailStaleJobs(ctx context.Context) (int64, error)
}

type runner struct {
	jobs       domainrepo.BatchJobRepository
	sentiments domainrepo.SentimentRepository
	messages   domainrepo.MessageRepository
	analyzer   Service
	cfg        *config.SentimentConfig
	logger     *zap.Logger

	// owner identifies this runner instance in job leases
	owner uuid.UUID

	mu        sync.Mutex
	busy      bool
	activeID  uuid.UUID
	cancelRun context.CancelFunc
}

// NewRunner constructs a batch runner with a fresh instance identity
func NewRunner(
	jobs domainrepo.BatchJobRepository,
	sentiments domainrepo.SentimentRepository,
	messages domainrepo.MessageRepository,
	analyzer Service,
	cfg *config.SentimentConfig,
	logger *zap.Logger,
) Runner {
	return &runner{
		jobs:       jobs,
		sentiments: sentiments,
		messages:   messages,
		analyzer:   analyzer,
		cfg:        cfg,
		logger:     logger,
		owner:      uuid.New(),
	}
}

// Start admits a job and walks it in the background
func (r *runner) Start(ctx context.Context, req BatchRequest) (*entities.BatchJob, error) {
	job, err := r.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	// The walk outlives the admitting request
	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancelRun = cancel
	r.mu.Unlock()

	go func() {
		defer cancel()
		_, _ = r.walk(runCtx, job)
	}()

	r.logger.Info("🚀 Batch sentiment job started",
		zap.String("job_id", job.ID.String()),
		zap.Int("max_messages", req.MaxMessages),
	)
	return job, nil
}

// Run admits a job and walks it synchronously
func (r *runner) Run(ctx context.Context, req BatchRequest) (*entities.BatchResult, error) {
	job, err := r.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelRun = cancel
	r.mu.Unlock()
	defer cancel()

	return r.walk(runCtx, job)
}

// admit rejects a second concurrent job, then persists the new running row
func (r *runner) admit(ctx context.Context, req BatchRequest) (*entities.BatchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return nil, entities.ErrBatchAlreadyRunning
	}
	active, err := r.jobs.FindActive(ctx, r.cfg.LeaseStaleAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to check for a live batch job: %w", err)
	}
	if active != nil {
		return nil, entities.ErrBatchAlreadyRunning
	}

	job := entities.NewBatchJob(r.owner, req.SessionID, req.StartDate, req.EndDate, req.MaxMessages)
	if err := r.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create batch job: %w", err)
	}

	r.busy = true
	r.activeID = job.ID
	return job, nil
}

func (r *runner) release() {
	r.mu.Lock()
	r.busy = false
	r.activeID = uuid.Nil
	r.cancelRun = nil
	r.mu.Unlock()
}

// walk processes the admitted job and finalizes its row
func (r *runner) walk(ctx context.Context, job *entities.BatchJob) (*entities.BatchResult, error) {
	defer r.release()

	progress, err := r.process(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Cancel already finalized the row
			r.logger.Info("🛑 Batch job stopped by cancellation", zap.String("job_id", job.ID.String()))
			return nil, err
		}
		if markErr := r.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			r.logger.Error("failed to finalize batch job as failed",
				zap.String("job_id", job.ID.String()), zap.Error(markErr))
		}
		r.logger.Error("❌ Batch job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return nil, err
	}

	if err := r.jobs.MarkCompleted(ctx, job.ID, *progress); err != nil {
		return nil, fmt.Errorf("failed to finalize batch job: %w", err)
	}

	r.logger.Info("✅ Batch job completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("total", progress.TotalMessages),
		zap.Int("processed", progress.ProcessedMessages),
		zap.Int("failed", progress.FailedMessages),
		zap.Int("skipped", progress.SkippedMessages),
		zap.Int64("tokens", progress.TotalTokensUsed),
		zap.Float64("cost_usd", progress.EstimatedCostUSD),
	)

	return &entities.BatchResult{
		JobID:             job.ID,
		TotalMessages:     progress.TotalMessages,
		ProcessedMessages: progress.ProcessedMessages,
		FailedMessages:    progress.FailedMessages,
		SkippedMessages:   progress.SkippedMessages,
		TotalTokensUsed:   progress.TotalTokensUsed,
		EstimatedCostUSD:  progress.EstimatedCostUSD,
	}, nil
}

// process walks candidate messages strictly sequentially. One failed
// message never stops the run; it is counted and the walk moves on.
func (r *runner) process(ctx context.Context, job *entities.BatchJob) (*domainrepo.BatchProgress, error) {
	inbound := entities.DirectionInbound
	filter := domainrepo.MessageFilter{
		SessionID: job.SessionID,
		StartDate: job.StartDate,
		EndDate:   job.EndDate,
		Direction: &inbound,
		Limit:     job.MaxMessages,
	}

	analyzed, err := r.sentiments.ListAnalyzedMessageIDs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyzed message ids: %w", err)
	}
	messages, err := r.messages.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate messages: %w", err)
	}

	progress := domainrepo.BatchProgress{TotalMessages: len(messages)}
	if err := r.jobs.UpdateProgress(ctx, job.ID, progress); err != nil {
		return nil, fmt.Errorf("failed to record job total: %w", err)
	}

	r.logger.Info("🔄 Walking messages for batch analysis",
		zap.String("job_id", job.ID.String()),
		zap.Int("total", len(messages)),
	)

	for i, msg := range messages {
		if i > 0 {
			// Pace the walk so the remote API is never hammered
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.BatchDelay):
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}

		progress.ProcessedMessages++

		if _, done := analyzed[msg.ID]; done {
			progress.SkippedMessages++
		} else if text, ok := r.analyzableText(msg); !ok {
			progress.SkippedMessages++
		} else if analysis, err := r.analyzeItem(ctx, job.ID, msg, text); err != nil {
			progress.FailedMessages++
			r.logger.Warn("message analysis failed",
				zap.String("job_id", job.ID.String()),
				zap.String("message_id", msg.ID.String()),
				zap.Error(err),
			)
		} else {
			progress.TotalTokensUsed += analysis.TokensUsed
			progress.EstimatedCostUSD += analysis.CostUSD
		}

		if r.cfg.ProgressInterval > 0 && progress.ProcessedMessages%r.cfg.ProgressInterval == 0 {
			if err := r.jobs.UpdateProgress(ctx, job.ID, progress); err != nil {
				r.logger.Warn("failed to persist batch progress",
					zap.String("job_id", job.ID.String()), zap.Error(err))
			}
		}
	}

	return &progress, nil
}

// analyzeItem runs one message through the analyzer inside an item guard:
// own timeout, detached from walk cancellation, panics contained.
func (r *runner) analyzeItem(ctx context.Context, jobID uuid.UUID, msg *entities.ChatMessage, text string) (*entities.SentimentAnalysis, error) {
	itemCtx, cancel := jobcontext.ItemBegin(ctx, jobID, msg.ID)
	defer cancel()

	var analysis *entities.SentimentAnalysis
	err := jobcontext.ItemRun(itemCtx, func(ctx context.Context) error {
		var runErr error
		analysis, runErr = r.analyzer.AnalyzeMessage(ctx, msg.ID, msg.SessionID, text)
		return runErr
	})
	return analysis, err
}

// analyzableText extracts the classifiable text of a message. ok is false
// for unrecognized envelopes and for texts under the configured minimum.
func (r *runner) analyzableText(msg *entities.ChatMessage) (string, bool) {
	env, err := entities.DecodeEnvelope(msg.Payload)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(env.DisplayText())
	if utf8.RuneCountInString(text) < r.cfg.MinMessageLength {
		return "", false
	}
	return text, true
}

// Cancel finalizes a running job as cancelled and stops its walk
func (r *runner) Cancel(ctx context.Context, jobID uuid.UUID) (*entities.BatchJob, error) {
	job, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch job: %w", err)
	}
	if job == nil {
		return nil, entities.ErrBatchJobNotFound
	}

	if err := r.jobs.MarkCancelled(ctx, jobID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.activeID == jobID && r.cancelRun != nil {
		r.cancelRun()
	}
	r.mu.Unlock()

	r.logger.Info("🛑 Batch job cancelled", zap.String("job_id", jobID.String()))
	return r.Get(ctx, jobID)
}

// Get retrieves a job by ID
func (r *runner) Get(ctx context.Context, jobID uuid.UUID) (*entities.BatchJob, error) {
	job, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch job: %w", err)
	}
	if job == nil {
		return nil, entities.ErrBatchJobNotFound
	}
	return job, nil
}

// Active retrieves the job currently holding a fresh lease
func (r *runner) Active(ctx context.Context) (*entities.BatchJob, error) {
	return r.jobs.FindActive(ctx, r.cfg.LeaseStaleAfter)
}

// ListRecent retrieves the most recently started jobs
func (r *runner) ListRecent(ctx context.Context, limit int) ([]*entities.BatchJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.jobs.ListRecent(ctx, limit)
}

// FailStaleJobs sweeps running jobs whose runner stopped heartbeating
func (r *runner) FailStaleJobs(ctx context.Context) (int64, error) {
	swept, err := r.jobs.FailStale(ctx, r.cfg.LeaseStaleAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale batch jobs: %w", err)
	}
	if swept > 0 {
		r.logger.Warn("🧹 Swept stale batch jobs", zap.Int64("count", swept))
	}
	return swept, nil
}
