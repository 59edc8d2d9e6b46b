package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
)

// sentimentRepository implements the SentimentRepository interface
type sentimentRepository struct {
	db *gorm.DB
}

// NewSentimentRepository creates a new sentiment analysis repository
func NewSentimentRepository(db *gorm.DB) repositories.SentimentRepository {
	return &sentimentRepository{db: db}
}

// Create persists a new analysis record
func (r *sentimentRepository) Create(ctx context.Context, analysis *entities.SentimentAnalysis) error {
	if analysis == nil {
		return errors.New("analysis cannot be nil")
	}
	return r.db.WithContext(ctx).Create(analysis).Error
}

// GetByMessageID retrieves the analysis for a message
func (r *sentimentRepository) GetByMessageID(ctx context.Context, messageID uuid.UUID) (*entities.SentimentAnalysis, error) {
	var analysis entities.SentimentAnalysis
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}

// ListBySession retrieves all analyses of a session, oldest first
func (r *sentimentRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entities.SentimentAnalysis, error) {
	var analyses []*entities.SentimentAnalysis
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("analyzed_at ASC").
		Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

// ListAnalyzedMessageIDs returns analyzed message IDs as a set. The date
// and direction filters are left to the message query: a superset here
// only means a membership test that never hits.
func (r *sentimentRepository) ListAnalyzedMessageIDs(ctx context.Context, filter repositories.MessageFilter) (map[uuid.UUID]struct{}, error) {
	query := r.db.WithContext(ctx).Model(&entities.SentimentAnalysis{})
	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}

	var ids []uuid.UUID
	if err := query.Pluck("message_id", &ids).Error; err != nil {
		return nil, err
	}

	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// GetStats aggregates label counts, confidence, keyword and emotion
// breakdowns. Date filters apply to analyzed_at.
func (r *sentimentRepository) GetStats(ctx context.Context, filter repositories.MessageFilter) (*repositories.SentimentStats, error) {
	stats := &repositories.SentimentStats{
		BySentiment: make(map[entities.Sentiment]int64),
		BySource:    make(map[entities.AnalysisSource]int64),
	}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&entities.SentimentAnalysis{})
		if filter.SessionID != nil {
			q = q.Where("session_id = ?", *filter.SessionID)
		}
		if filter.StartDate != nil {
			q = q.Where("analyzed_at >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			q = q.Where("analyzed_at <= ?", *filter.EndDate)
		}
		return q
	}

	var overall struct {
		Total         int64
		AvgConfidence float64
	}
	if err := base().
		Select("COUNT(*) as total, COALESCE(AVG(confidence), 0) as avg_confidence").
		Scan(&overall).Error; err != nil {
		return nil, err
	}
	stats.Total = overall.Total
	stats.AvgConfidence = overall.AvgConfidence

	var bySentiment []struct {
		Sentiment entities.Sentiment
		Count     int64
	}
	if err := base().
		Select("sentiment, COUNT(*) as count").
		Group("sentiment").
		Scan(&bySentiment).Error; err != nil {
		return nil, err
	}
	for _, row := range bySentiment {
		stats.BySentiment[row.Sentiment] = row.Count
	}

	var bySource []struct {
		Source entities.AnalysisSource
		Count  int64
	}
	if err := base().
		Select("source, COUNT(*) as count").
		Group("source").
		Scan(&bySource).Error; err != nil {
		return nil, err
	}
	for _, row := range bySource {
		stats.BySource[row.Source] = row.Count
	}

	var keywords []repositories.KeywordCount
	if err := base().
		Select("kw as keyword, COUNT(*) as count").
		Joins(", jsonb_array_elements_text(keywords) AS kw").
		Where("jsonb_typeof(keywords) = 'array'").
		Group("kw").
		Order("count DESC, kw ASC").
		Limit(10).
		Scan(&keywords).Error; err != nil {
		return nil, err
	}
	stats.TopKeywords = keywords

	var emotions []struct {
		Emotion   entities.Emotion
		Intensity float64
	}
	if err := base().
		Select("emo.key as emotion, AVG(emo.value::float) as intensity").
		Joins(", jsonb_each_text(emotions) AS emo").
		Where("jsonb_typeof(emotions) = 'object'").
		Group("emo.key").
		Scan(&emotions).Error; err != nil {
		return nil, err
	}
	if len(emotions) > 0 {
		stats.EmotionAverage = make(map[entities.Emotion]float64, len(emotions))
		for _, row := range emotions {
			stats.EmotionAverage[row.Emotion] = row.Intensity
		}
	}

	return stats, nil
}
