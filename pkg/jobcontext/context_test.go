package jobcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestItemBegin_CarriesMetadata(t *testing.T) {
	jobID := uuid.New()
	messageID := uuid.New()

	ctx, cancel := ItemBegin(context.Background(), jobID, messageID)
	defer cancel()

	gotJob, ok := BatchJobID(ctx)
	if !ok || gotJob != jobID {
		t.Fatalf("BatchJobID = %v, %v; want %v", gotJob, ok, jobID)
	}
	gotMsg, ok := MessageID(ctx)
	if !ok || gotMsg != messageID {
		t.Fatalf("MessageID = %v, %v; want %v", gotMsg, ok, messageID)
	}
	if ItemElapsed(ctx) < 0 {
		t.Fatal("ItemElapsed went backwards")
	}
	if ItemElapsed(context.Background()) != 0 {
		t.Fatal("ItemElapsed outside an item context must be zero")
	}
}

func TestItemBegin_DetachedFromParentCancellation(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := ItemBegin(parent, uuid.New(), uuid.New())
	defer cancel()

	cancelParent()

	if err := ctx.Err(); err != nil {
		t.Fatalf("item context must survive parent cancellation, got %v", err)
	}
}

func TestItemRun_RecoversPanics(t *testing.T) {
	ctx, cancel := ItemBegin(context.Background(), uuid.New(), uuid.New())
	defer cancel()

	err := ItemRun(ctx, func(context.Context) error {
		panic("poisoned payload")
	})
	if err == nil {
		t.Fatal("expected an error from a panicking item")
	}
}

func TestItemRun_PassesThroughResults(t *testing.T) {
	ctx, cancel := ItemBegin(context.Background(), uuid.New(), uuid.New())
	defer cancel()

	if err := ItemRun(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	want := errors.New("classifier declined")
	if err := ItemRun(ctx, func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestItemRun_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	err := ItemRun(ctx, func(context.Context) error {
		t.Fatal("item must not run on an expired context")
		return nil
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}
