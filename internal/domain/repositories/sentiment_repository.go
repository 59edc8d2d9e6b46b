package repositories

import (
	"context"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/google/uuid"
)

// SentimentRepository defines the interface for sentiment analysis data access
type SentimentRepository interface {
	// Create persists a new analysis record
	Create(ctx context.Context, analysis *entities.SentimentAnalysis) error

	// GetByMessageID retrieves the analysis for a message, nil when none exists
	GetByMessageID(ctx context.Context, messageID uuid.UUID) (*entities.SentimentAnalysis, error)

	// ListBySession retrieves all analyses of a session, oldest first
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entities.SentimentAnalysis, error)

	// ListAnalyzedMessageIDs returns the IDs of already-analyzed messages
	// matching the filter, as a set for batch exclusion
	ListAnalyzedMessageIDs(ctx context.Context, filter MessageFilter) (map[uuid.UUID]struct{}, error)

	// GetStats aggregates label counts, confidence and source split
	GetStats(ctx context.Context, filter MessageFilter) (*SentimentStats, error)
}

// SentimentStats is the aggregate shape behind the dashboard charts
type SentimentStats struct {
	Total          int64                             `json:"total"`
	BySentiment    map[entities.Sentiment]int64      `json:"by_sentiment"`
	BySource       map[entities.AnalysisSource]int64 `json:"by_source"`
	AvgConfidence  float64                           `json:"avg_confidence"`
	TopKeywords    []KeywordCount                    `json:"top_keywords,omitempty"`
	EmotionAverage map[entities.Emotion]float64      `json:"emotion_average,omitempty"`
}

// KeywordCount pairs a keyword with its occurrence count
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}
