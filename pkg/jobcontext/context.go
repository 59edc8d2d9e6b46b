package jobcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type keyContext string

var (
	keyBatchJobID keyContext = "batch_job_id"
	keyMessageID  keyContext = "message_id"
	keyItemStart  keyContext = "item_start_time"
)

// Ceiling for one item; a wedged classifier call cannot stall the walk
// longer than this.
const itemTimeout = 30 * time.Second

// ItemBegin derives the context one batch item runs under: item metadata,
// a hard timeout, and no inherited cancellation. A claimed item always
// runs to completion even while the walk is being cancelled.
func ItemBegin(parent context.Context, batchJobID, messageID uuid.UUID) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), itemTimeout)
	ctx = context.WithValue(ctx, keyBatchJobID, batchJobID)
	ctx = context.WithValue(ctx, keyMessageID, messageID)
	ctx = context.WithValue(ctx, keyItemStart, time.Now())
	return ctx, cancel
}

// ItemRun executes one item with panic containment. Items run at most
// once; the caller records a failure and moves to the next message.
func ItemRun(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("item context expired before execution: %w", ctx.Err())
	}

	return fn(ctx)
}

// BatchJobID returns the batch job the current item belongs to
func BatchJobID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyBatchJobID).(uuid.UUID)
	return id, ok
}

// MessageID returns the message id of the current item
func MessageID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyMessageID).(uuid.UUID)
	return id, ok
}

// ItemElapsed returns how long the current item has been running, zero
// outside an item context
func ItemElapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(keyItemStart).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
