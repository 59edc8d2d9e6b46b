package repositories

import (
	"context"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
)

// UsageRepository tracks daily remote-classifier spend. AddUsage must be
// safe to call concurrently; GetDay returns a zero-valued row for days
// with no usage yet.
type UsageRepository interface {
	// AddUsage folds one classification into the day row. Remote calls
	// carry their token usage; local calls pass usage=nil and only bump
	// the local counter.
	AddUsage(ctx context.Context, day string, usage *entities.TokenUsage, remote bool) error

	// GetDay retrieves the usage aggregate for a day key
	GetDay(ctx context.Context, day string) (*entities.DailyUsage, error)
}
