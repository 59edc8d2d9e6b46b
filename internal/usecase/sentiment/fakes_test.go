package sentiment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	domainrepo "github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	pkgai "github.com/chatdesk-team/chatdesk/pkg/ai"
)

// fakeSentimentRepo implements domainrepo.SentimentRepository in memory
type fakeSentimentRepo struct {
	mu        sync.Mutex
	byMessage map[uuid.UUID]*entities.SentimentAnalysis
	failOn    map[uuid.UUID]bool
}

func newFakeSentimentRepo() *fakeSentimentRepo {
	return &fakeSentimentRepo{
		byMessage: make(map[uuid.UUID]*entities.SentimentAnalysis),
		failOn:    make(map[uuid.UUID]bool),
	}
}

func (f *fakeSentimentRepo) Create(_ context.Context, analysis *entities.SentimentAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[analysis.MessageID] {
		return errors.New("forced insert failure")
	}
	f.byMessage[analysis.MessageID] = analysis
	return nil
}

func (f *fakeSentimentRepo) GetByMessageID(_ context.Context, messageID uuid.UUID) (*entities.SentimentAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byMessage[messageID], nil
}

func (f *fakeSentimentRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*entities.SentimentAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.SentimentAnalysis
	for _, a := range f.byMessage {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSentimentRepo) ListAnalyzedMessageIDs(_ context.Context, _ domainrepo.MessageFilter) (map[uuid.UUID]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[uuid.UUID]struct{}, len(f.byMessage))
	for id := range f.byMessage {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeSentimentRepo) GetStats(_ context.Context, _ domainrepo.MessageFilter) (*domainrepo.SentimentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domainrepo.SentimentStats{
		BySentiment: make(map[entities.Sentiment]int64),
		BySource:    make(map[entities.AnalysisSource]int64),
	}
	var confSum float64
	for _, a := range f.byMessage {
		stats.Total++
		stats.BySentiment[a.Sentiment]++
		stats.BySource[a.Source]++
		confSum += a.Confidence
	}
	if stats.Total > 0 {
		stats.AvgConfidence = confSum / float64(stats.Total)
	}
	return stats, nil
}

func (f *fakeSentimentRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byMessage)
}

// fakeMessageRepo implements domainrepo.MessageRepository in memory
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*entities.ChatMessage
}

func (f *fakeMessageRepo) Create(_ context.Context, m *entities.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMessageRepo) List(_ context.Context, filter domainrepo.MessageFilter) ([]*entities.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.ChatMessage
	for _, m := range f.messages {
		if filter.SessionID != nil && m.SessionID != *filter.SessionID {
			continue
		}
		if filter.Direction != nil && m.Direction != *filter.Direction {
			continue
		}
		out = append(out, m)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) CountBySession(_ context.Context, sessionID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

// fakeUsageRepo implements domainrepo.UsageRepository in memory
type fakeUsageRepo struct {
	mu   sync.Mutex
	days map[string]*entities.DailyUsage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{days: make(map[string]*entities.DailyUsage)}
}

func (f *fakeUsageRepo) AddUsage(_ context.Context, day string, usage *entities.TokenUsage, remote bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.days[day]
	if row == nil {
		row = &entities.DailyUsage{Day: day}
		f.days[day] = row
	}
	if remote {
		row.RemoteCalls++
	} else {
		row.LocalCalls++
	}
	if usage != nil {
		row.TotalTokens += int64(usage.TotalTokens)
		row.TotalCostUSD += usage.EstimatedCostUSD
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUsageRepo) GetDay(_ context.Context, day string) (*entities.DailyUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.days[day]; ok {
		copied := *row
		return &copied, nil
	}
	return &entities.DailyUsage{Day: day}, nil
}

// seed overwrites a day row, bypassing AddUsage accounting
func (f *fakeUsageRepo) seed(row *entities.DailyUsage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.days[row.Day] = row
}

// fakeBatchJobRepo implements domainrepo.BatchJobRepository in memory.
// FindActive and FailStale use the entity lease helper so the tests cover
// the same freshness rule production relies on.
type fakeBatchJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entities.BatchJob
}

func newFakeBatchJobRepo() *fakeBatchJobRepo {
	return &fakeBatchJobRepo{jobs: make(map[uuid.UUID]*entities.BatchJob)}
}

func (f *fakeBatchJobRepo) Create(_ context.Context, job *entities.BatchJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeBatchJobRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeBatchJobRepo) FindActive(_ context.Context, staleAfter time.Duration) (*entities.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.Status == entities.BatchJobStatusRunning && job.LeaseFresh(staleAfter) {
			copied := *job
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBatchJobRepo) UpdateProgress(_ context.Context, id uuid.UUID, p domainrepo.BatchProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return entities.ErrBatchJobNotFound
	}
	job.TotalMessages = p.TotalMessages
	job.ProcessedMessages = p.ProcessedMessages
	job.FailedMessages = p.FailedMessages
	job.SkippedMessages = p.SkippedMessages
	job.TotalTokensUsed = p.TotalTokensUsed
	job.EstimatedCostUSD = p.EstimatedCostUSD
	job.HeartbeatAt = time.Now()
	return nil
}

func (f *fakeBatchJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID, p domainrepo.BatchProgress) error {
	if err := f.UpdateProgress(ctx, id, p); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[id]
	if job.Status.IsTerminal() {
		return entities.ErrBatchJobFinished
	}
	job.MarkAsCompleted()
	return nil
}

func (f *fakeBatchJobRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return entities.ErrBatchJobNotFound
	}
	if job.Status.IsTerminal() {
		return entities.ErrBatchJobFinished
	}
	job.MarkAsFailed(errMsg)
	return nil
}

func (f *fakeBatchJobRepo) MarkCancelled(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return entities.ErrBatchJobNotFound
	}
	if job.Status.IsTerminal() {
		return entities.ErrBatchJobFinished
	}
	job.MarkAsCancelled()
	return nil
}

func (f *fakeBatchJobRepo) ListRecent(_ context.Context, limit int) ([]*entities.BatchJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.BatchJob
	for _, job := range f.jobs {
		copied := *job
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBatchJobRepo) FailStale(_ context.Context, staleAfter time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var swept int64
	for _, job := range f.jobs {
		if job.Status == entities.BatchJobStatusRunning && !job.LeaseFresh(staleAfter) {
			job.MarkAsFailed("stale lease: runner heartbeat expired")
			swept++
		}
	}
	return swept, nil
}

func (f *fakeBatchJobRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// fakeRemote implements RemoteClassifier with a scripted response
type fakeRemote struct {
	mu             sync.Mutex
	configured     bool
	classification *pkgai.Classification
	err            error
	calls          int
}

func (f *fakeRemote) AnalyzeSentiment(_ context.Context, _ string) (*pkgai.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.classification, f.err
}

func (f *fakeRemote) Configured() bool { return f.configured }

func (f *fakeRemote) Model() string { return "fake-model" }

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
