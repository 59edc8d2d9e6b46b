package entities

import (
	"math"
	"time"
)

// TokenUsage captures the token accounting of one remote classification
type TokenUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// NewTokenUsage computes usage with cost from per-1K-token rates,
// rounded to 5 decimal places
func NewTokenUsage(promptTokens, completionTokens int, inputRatePer1K, outputRatePer1K float64) *TokenUsage {
	cost := float64(promptTokens)/1000*inputRatePer1K + float64(completionTokens)/1000*outputRatePer1K
	return &TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		EstimatedCostUSD: RoundCost(cost),
	}
}

// RoundCost rounds a dollar amount to 5 decimal places, the precision
// used everywhere costs are stored or summed
func RoundCost(usd float64) float64 {
	return math.Round(usd*100000) / 100000
}

// UsageDay formats a timestamp as the UTC day key used by daily usage rows
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailyUsage aggregates remote-classifier spend for one UTC day.
// One row per day; the dispatcher reads it before every remote call.
type DailyUsage struct {
	Day          string    `json:"day" gorm:"type:varchar(10);primaryKey"`
	TotalTokens  int64     `json:"total_tokens" gorm:"not null;default:0"`
	TotalCostUSD float64   `json:"total_cost_usd" gorm:"not null;default:0"`
	RemoteCalls  int64     `json:"remote_calls" gorm:"not null;default:0"`
	LocalCalls   int64     `json:"local_calls" gorm:"not null;default:0"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (DailyUsage) TableName() string {
	return "daily_usages"
}

// BudgetExhausted reports whether either daily ceiling has been reached
func (u *DailyUsage) BudgetExhausted(maxCostUSD float64, maxTokens int64) bool {
	if u == nil {
		return false
	}
	return u.TotalCostUSD >= maxCostUSD || u.TotalTokens >= maxTokens
}
