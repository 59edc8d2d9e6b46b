package entities

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment represents the overall polarity of a message
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// IsValid checks that the label is one of the known polarities
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// AnalysisSource represents which classifier produced a result
type AnalysisSource string

const (
	AnalysisSourceRule AnalysisSource = "rule" // local keyword classifier
	AnalysisSourceLLM  AnalysisSource = "llm"  // remote chat-completions API
)

// Emotion is one of the fixed emotion categories a message can carry
type Emotion string

const (
	EmotionJoy          Emotion = "joy"
	EmotionAnger        Emotion = "anger"
	EmotionFear         Emotion = "fear"
	EmotionSadness      Emotion = "sadness"
	EmotionSurprise     Emotion = "surprise"
	EmotionDisgust      Emotion = "disgust"
	EmotionTrust        Emotion = "trust"
	EmotionAnticipation Emotion = "anticipation"
)

// AllEmotions lists the complete emotion vocabulary
var AllEmotions = []Emotion{
	EmotionJoy,
	EmotionAnger,
	EmotionFear,
	EmotionSadness,
	EmotionSurprise,
	EmotionDisgust,
	EmotionTrust,
	EmotionAnticipation,
}

// IsValid checks that the emotion belongs to the fixed vocabulary
func (e Emotion) IsValid() bool {
	for _, known := range AllEmotions {
		if e == known {
			return true
		}
	}
	return false
}

// SentimentResult is the in-memory outcome of classifying one message.
// Emotions is nil when no emotion was detected; when present the
// intensities sum to 1. Keywords are deduplicated in match order.
type SentimentResult struct {
	Sentiment  Sentiment           `json:"sentiment"`
	Confidence float64             `json:"confidence"`
	Emotions   map[Emotion]float64 `json:"emotions,omitempty"`
	Keywords   []string            `json:"keywords,omitempty"`
	Language   string              `json:"language,omitempty"`
}

// SentimentAnalysis is the persisted record of a classified message.
// A message has at most one row; MessageID carries a unique index.
type SentimentAnalysis struct {
	ID         uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MessageID  uuid.UUID           `json:"message_id" gorm:"type:uuid;not null;uniqueIndex"`
	SessionID  uuid.UUID           `json:"session_id" gorm:"type:uuid;not null;index"`
	Sentiment  Sentiment           `json:"sentiment" gorm:"type:varchar(20);not null;index"`
	Confidence float64             `json:"confidence" gorm:"not null"`
	Emotions   map[Emotion]float64 `json:"emotions,omitempty" gorm:"type:jsonb;serializer:json"`
	Keywords   []string            `json:"keywords,omitempty" gorm:"type:jsonb;serializer:json"`
	Language   string              `json:"language,omitempty" gorm:"type:varchar(20)"`
	Source     AnalysisSource      `json:"source" gorm:"type:varchar(20);not null;index"`
	ModelUsed  string              `json:"model_used,omitempty" gorm:"type:varchar(100)"`
	TokensUsed int64               `json:"tokens_used" gorm:"not null;default:0"`
	CostUSD    float64             `json:"cost_usd" gorm:"not null;default:0"`
	AnalyzedAt time.Time           `json:"analyzed_at" gorm:"type:timestamp;not null"`
	CreatedAt  time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SentimentAnalysis) TableName() string {
	return "sentiment_analyses"
}

// NewSentimentAnalysis builds a persisted record from a classifier result
func NewSentimentAnalysis(messageID, sessionID uuid.UUID, result *SentimentResult, source AnalysisSource) *SentimentAnalysis {
	now := time.Now()
	return &SentimentAnalysis{
		ID:         uuid.New(),
		MessageID:  messageID,
		SessionID:  sessionID,
		Sentiment:  result.Sentiment,
		Confidence: result.Confidence,
		Emotions:   result.Emotions,
		Keywords:   result.Keywords,
		Language:   result.Language,
		Source:     source,
		AnalyzedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Result rebuilds the ephemeral classifier result from the stored row
func (a *SentimentAnalysis) Result() *SentimentResult {
	return &SentimentResult{
		Sentiment:  a.Sentiment,
		Confidence: a.Confidence,
		Emotions:   a.Emotions,
		Keywords:   a.Keywords,
		Language:   a.Language,
	}
}
