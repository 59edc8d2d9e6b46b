package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	domainrepo "github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	pkgai "github.com/chatdesk-team/chatdesk/pkg/ai"
	"github.com/chatdesk-team/chatdesk/pkg/config"
	"github.com/chatdesk-team/chatdesk/pkg/jobcontext"
)

// RemoteClassifier is the remote model the dispatcher prefers while the
// daily budget allows it. A (nil, nil) return means the remote path
// declined and the local classifier should serve.
type RemoteClassifier interface {
	AnalyzeSentiment(ctx context.Context, message string) (*pkgai.Classification, error)
	Configured() bool
	Model() string
}

// Service defines sentiment analysis orchestration methods
type Service interface {
	// AnalyzeMessage classifies content for a message, preferring the
	// remote classifier under budget and falling back to the local one.
	// Idempotent: an already-analyzed message returns its stored result.
	AnalyzeMessage(ctx context.Context, messageID, sessionID uuid.UUID, content string) (*entities.SentimentAnalysis, error)

	// AnalyzeStoredMessage loads a stored message, decodes its envelope
	// and classifies its text
	AnalyzeStoredMessage(ctx context.Context, messageID uuid.UUID) (*entities.SentimentAnalysis, error)

	// GetStats aggregates analysis results for the dashboard
	GetStats(ctx context.Context, filter domainrepo.MessageFilter) (*domainrepo.SentimentStats, error)

	// ListSessionAnalyses retrieves the stored analyses of a session, used
	// to annotate the conversation view
	ListSessionAnalyses(ctx context.Context, sessionID uuid.UUID) ([]*entities.SentimentAnalysis, error)

	// GetTodayUsage reports today's spend against the configured budget
	GetTodayUsage(ctx context.Context) (*UsageReport, error)
}

// UsageReport is today's spend next to the configured ceilings
type UsageReport struct {
	Day             string  `json:"day"`
	TotalTokens     int64   `json:"total_tokens"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	RemoteCalls     int64   `json:"remote_calls"`
	LocalCalls      int64   `json:"local_calls"`
	BudgetUSD       float64 `json:"budget_usd"`
	TokenBudget     int64   `json:"token_budget"`
	RemainingUSD    float64 `json:"remaining_usd"`
	RemainingTokens int64   `json:"remaining_tokens"`
	Exhausted       bool    `json:"exhausted"`
}

type service struct {
	sentimentRepo domainrepo.SentimentRepository
	messageRepo   domainrepo.MessageRepository
	usageRepo     domainrepo.UsageRepository
	classifier    *Classifier
	remote        RemoteClassifier
	cfg           *config.SentimentConfig
	logger        *zap.Logger
}

// NewService constructs the hybrid sentiment service
func NewService(
	sentimentRepo domainrepo.SentimentRepository,
	messageRepo domainrepo.MessageRepository,
	usageRepo domainrepo.UsageRepository,
	classifier *Classifier,
	remote RemoteClassifier,
	cfg *config.SentimentConfig,
	logger *zap.Logger,
) Service {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &service{
		sentimentRepo: sentimentRepo,
		messageRepo:   messageRepo,
		usageRepo:     usageRepo,
		classifier:    classifier,
		remote:        remote,
		cfg:           cfg,
		logger:        logger,
	}
}

// AnalyzeMessage runs the hybrid dispatch for one message
func (s *service) AnalyzeMessage(ctx context.Context, messageID, sessionID uuid.UUID, content string) (*entities.SentimentAnalysis, error) {
	// A message is analyzed at most once
	existing, err := s.sentimentRepo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing analysis: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	day := entities.UsageDay(time.Now())

	var analysis *entities.SentimentAnalysis
	var remoteUsage *entities.TokenUsage

	if s.remote != nil && s.remote.Configured() {
		usage, err := s.usageRepo.GetDay(ctx, day)
		switch {
		case err != nil:
			s.logger.Warn("usage lookup failed, using local classifier", zap.Error(err))
		case usage.BudgetExhausted(s.cfg.DailyBudgetUSD, s.cfg.DailyTokenBudget):
			s.logger.Info("💸 Daily AI budget exhausted, using local classifier",
				zap.String("day", day),
				zap.Float64("cost_usd", usage.TotalCostUSD),
				zap.Int64("tokens", usage.TotalTokens),
			)
		default:
			classification, err := s.remote.AnalyzeSentiment(ctx, content)
			if err != nil {
				s.logger.Warn("remote classification errored, falling back", zap.Error(err))
			} else if classification != nil {
				analysis = entities.NewSentimentAnalysis(messageID, sessionID, classification.Result, entities.AnalysisSourceLLM)
				analysis.ModelUsed = classification.Model
				remoteUsage = classification.Usage
				if remoteUsage != nil {
					analysis.TokensUsed = int64(remoteUsage.TotalTokens)
					analysis.CostUSD = remoteUsage.EstimatedCostUSD
				}
			}
		}
	}

	if analysis == nil {
		result := s.classifier.Analyze(content)
		analysis = entities.NewSentimentAnalysis(messageID, sessionID, result, entities.AnalysisSourceRule)
	}
	if analysis.Language == "" {
		analysis.Language = DetectLanguage(content)
	}

	// Spend is recorded before persistence: a remote call that already
	// happened must count against the budget even if the insert fails.
	// Local classifications record zero usage but still bump the counter.
	if err := s.usageRepo.AddUsage(ctx, day, remoteUsage, remoteUsage != nil); err != nil {
		s.logger.Warn("failed to record usage", zap.String("day", day), zap.Error(err))
	}

	if err := s.sentimentRepo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	fields := []zap.Field{
		zap.String("message_id", messageID.String()),
		zap.String("sentiment", string(analysis.Sentiment)),
		zap.String("source", string(analysis.Source)),
	}
	if jobID, ok := jobcontext.BatchJobID(ctx); ok {
		fields = append(fields,
			zap.String("batch_job_id", jobID.String()),
			zap.Duration("took", jobcontext.ItemElapsed(ctx)),
		)
	}
	s.logger.Debug("message classified", fields...)

	return analysis, nil
}

// AnalyzeStoredMessage classifies a message that already lives in the store
func (s *service) AnalyzeStoredMessage(ctx context.Context, messageID uuid.UUID) (*entities.SentimentAnalysis, error) {
	msg, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		return nil, entities.ErrMessageNotFound
	}

	env, err := entities.DecodeEnvelope(msg.Payload)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(env.DisplayText())
	if text == "" {
		return nil, entities.ErrEmptyMessage
	}

	return s.AnalyzeMessage(ctx, msg.ID, msg.SessionID, text)
}

// GetStats aggregates analysis results for the dashboard
func (s *service) GetStats(ctx context.Context, filter domainrepo.MessageFilter) (*domainrepo.SentimentStats, error) {
	stats, err := s.sentimentRepo.GetStats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sentiment stats: %w", err)
	}
	return stats, nil
}

// ListSessionAnalyses retrieves the stored analyses of a session
func (s *service) ListSessionAnalyses(ctx context.Context, sessionID uuid.UUID) ([]*entities.SentimentAnalysis, error) {
	analyses, err := s.sentimentRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session analyses: %w", err)
	}
	return analyses, nil
}

// GetTodayUsage reports today's spend against the configured budget
func (s *service) GetTodayUsage(ctx context.Context) (*UsageReport, error) {
	day := entities.UsageDay(time.Now())
	usage, err := s.usageRepo.GetDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	remainingUSD := s.cfg.DailyBudgetUSD - usage.TotalCostUSD
	if remainingUSD < 0 {
		remainingUSD = 0
	}
	remainingTokens := s.cfg.DailyTokenBudget - usage.TotalTokens
	if remainingTokens < 0 {
		remainingTokens = 0
	}

	return &UsageReport{
		Day:             day,
		TotalTokens:     usage.TotalTokens,
		TotalCostUSD:    entities.RoundCost(usage.TotalCostUSD),
		RemoteCalls:     usage.RemoteCalls,
		LocalCalls:      usage.LocalCalls,
		BudgetUSD:       s.cfg.DailyBudgetUSD,
		TokenBudget:     s.cfg.DailyTokenBudget,
		RemainingUSD:    entities.RoundCost(remainingUSD),
		RemainingTokens: remainingTokens,
		Exhausted:       usage.BudgetExhausted(s.cfg.DailyBudgetUSD, s.cfg.DailyTokenBudget),
	}, nil
}
