package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/internal/usecase/sentiment"
)

// Scheduler owns the recurring background jobs: sweeping batch jobs whose
// runner died without finalizing them, and warming the usage cache for the
// new accounting day.
type Scheduler struct {
	cron   *cron.Cron
	runner sentiment.Runner
	usage  repositories.UsageRepository
	logger *zap.Logger
}

func NewScheduler(runner sentiment.Runner, usage repositories.UsageRepository, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		usage:  usage,
		logger: logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	// Every 5 minutes: fail running batch jobs with expired heartbeats.
	if _, err := s.cron.AddFunc("0 */5 * * * *", s.sweepStaleBatchJobs); err != nil {
		return err
	}

	// Shortly after midnight: prime the usage cache for the new day so the
	// first dashboard read does not pay the cold-start round trip.
	if _, err := s.cron.AddFunc("0 1 0 * * *", s.warmUsageCache); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("⏰ Scheduler started",
		zap.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop stops the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("⏰ Scheduler stopped")
}

func (s *Scheduler) sweepStaleBatchJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.runner.FailStaleJobs(ctx); err != nil {
		s.logger.Error("❌ Stale batch job sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) warmUsageCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	day := entities.UsageDay(time.Now())
	if _, err := s.usage.GetDay(ctx, day); err != nil {
		s.logger.Error("❌ Usage cache warm-up failed",
			zap.String("day", day),
			zap.Error(err),
		)
	}
}
