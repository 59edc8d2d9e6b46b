package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"github.com/chatdesk-team/chatdesk/internal/domain/repositories"
	"github.com/chatdesk-team/chatdesk/internal/infrastructure/cache"
)

const usageKeyTTL = 48 * time.Hour

// usageRepository implements the UsageRepository interface. Postgres is
// the source of truth; a redis hash per day serves reads and is kept in
// step best-effort, so cache failures never fail the call.
type usageRepository struct {
	db     *gorm.DB
	cache  *cache.RedisCache
	logger *zap.Logger
}

// NewUsageRepository creates a new daily usage repository. cache may be
// nil, in which case every read goes to Postgres.
func NewUsageRepository(db *gorm.DB, redisCache *cache.RedisCache, logger *zap.Logger) repositories.UsageRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &usageRepository{db: db, cache: redisCache, logger: logger}
}

func usageKey(day string) string {
	return fmt.Sprintf("sentiment:usage:%s", day)
}

// AddUsage folds one classification into the day row
func (r *usageRepository) AddUsage(ctx context.Context, day string, usage *entities.TokenUsage, remote bool) error {
	var tokens int64
	var cost float64
	if usage != nil {
		tokens = int64(usage.TotalTokens)
		cost = usage.EstimatedCostUSD
	}
	var remoteInc, localInc int64
	if remote {
		remoteInc = 1
	} else {
		localInc = 1
	}

	row := &entities.DailyUsage{
		Day:          day,
		TotalTokens:  tokens,
		TotalCostUSD: cost,
		RemoteCalls:  remoteInc,
		LocalCalls:   localInc,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_tokens":   gorm.Expr("daily_usages.total_tokens + ?", tokens),
			"total_cost_usd": gorm.Expr("daily_usages.total_cost_usd + ?", cost),
			"remote_calls":   gorm.Expr("daily_usages.remote_calls + ?", remoteInc),
			"local_calls":    gorm.Expr("daily_usages.local_calls + ?", localInc),
			"updated_at":     time.Now(),
		}),
	}).Create(row).Error
	if err != nil {
		return err
	}

	if r.cache != nil {
		key := usageKey(day)
		_, err := r.cache.GetClient().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, key, "total_tokens", tokens)
			pipe.HIncrByFloat(ctx, key, "total_cost_usd", cost)
			pipe.HIncrBy(ctx, key, "remote_calls", remoteInc)
			pipe.HIncrBy(ctx, key, "local_calls", localInc)
			pipe.Expire(ctx, key, usageKeyTTL)
			return nil
		})
		if err != nil {
			r.logger.Warn("usage cache write-through failed", zap.String("day", day), zap.Error(err))
		}
	}

	return nil
}

// GetDay retrieves the usage aggregate for a day key. Days with no usage
// yet come back as a zero-valued row.
func (r *usageRepository) GetDay(ctx context.Context, day string) (*entities.DailyUsage, error) {
	if r.cache != nil {
		if row, ok := r.readCached(ctx, day); ok {
			return row, nil
		}
	}

	var row entities.DailyUsage
	if err := r.db.WithContext(ctx).Where("day = ?", day).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entities.DailyUsage{Day: day}, nil
		}
		return nil, err
	}

	if r.cache != nil {
		r.primeCache(ctx, &row)
	}
	return &row, nil
}

// readCached loads the day hash; ok is false when the key is absent or
// any field fails to parse
func (r *usageRepository) readCached(ctx context.Context, day string) (*entities.DailyUsage, bool) {
	fields, err := r.cache.HGetAll(ctx, usageKey(day))
	if err != nil {
		r.logger.Warn("usage cache read failed", zap.String("day", day), zap.Error(err))
		return nil, false
	}
	if len(fields) == 0 {
		return nil, false
	}

	row := &entities.DailyUsage{Day: day}
	var parseErr error
	parseInt := func(field string) int64 {
		raw, ok := fields[field]
		if !ok {
			return 0
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			parseErr = err
		}
		return v
	}
	row.TotalTokens = parseInt("total_tokens")
	row.RemoteCalls = parseInt("remote_calls")
	row.LocalCalls = parseInt("local_calls")
	if raw, ok := fields["total_cost_usd"]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErr = err
		}
		row.TotalCostUSD = v
	}
	if parseErr != nil {
		r.logger.Warn("usage cache entry unparseable", zap.String("day", day), zap.Error(parseErr))
		return nil, false
	}
	return row, true
}

// primeCache seeds the day hash from a Postgres row, best-effort
func (r *usageRepository) primeCache(ctx context.Context, row *entities.DailyUsage) {
	key := usageKey(row.Day)
	err := r.cache.HSet(ctx, key, map[string]interface{}{
		"total_tokens":   row.TotalTokens,
		"total_cost_usd": row.TotalCostUSD,
		"remote_calls":   row.RemoteCalls,
		"local_calls":    row.LocalCalls,
	})
	if err != nil {
		r.logger.Warn("usage cache prime failed", zap.String("day", row.Day), zap.Error(err))
		return
	}
	if err := r.cache.Expire(ctx, key, usageKeyTTL); err != nil {
		r.logger.Warn("usage cache expire failed", zap.String("day", row.Day), zap.Error(err))
	}
}
