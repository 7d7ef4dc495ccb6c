package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDispatcher_InvokesHandlersInRegistrationOrder(t *testing.T) {
	d := NewDispatcher(nil, nil)

	var order []string
	d.Subscribe(KindExpenseLogged, "first", func(ctx context.Context, evt Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(KindExpenseLogged, "second", func(ctx context.Context, evt Event) error {
		order = append(order, "second")
		return nil
	})

	d.Publish(context.Background(), ExpenseLogged{UserID: uuid.New(), At: time.Now()})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected registration order, got %v", order)
	}
}

func TestDispatcher_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	d := NewDispatcher(nil, nil)

	var ran bool
	d.Subscribe(KindReceiptScanned, "boom", func(ctx context.Context, evt Event) error {
		return errors.New("boom")
	})
	d.Subscribe(KindReceiptScanned, "panicky", func(ctx context.Context, evt Event) error {
		panic("bad handler")
	})
	d.Subscribe(KindReceiptScanned, "survivor", func(ctx context.Context, evt Event) error {
		ran = true
		return nil
	})

	d.Publish(context.Background(), ReceiptScanned{ReceiptID: uuid.New(), At: time.Now()})

	if !ran {
		t.Fatal("expected later handler to run after earlier failures")
	}
}

func TestDispatcher_OnlyMatchingKindRuns(t *testing.T) {
	d := NewDispatcher(nil, nil)

	var expenseRuns, receiptRuns int
	d.Subscribe(KindExpenseLogged, "expense", func(ctx context.Context, evt Event) error {
		expenseRuns++
		return nil
	})
	d.Subscribe(KindReceiptScanned, "receipt", func(ctx context.Context, evt Event) error {
		receiptRuns++
		return nil
	})

	d.Publish(context.Background(), ExpenseLogged{At: time.Now()})

	if expenseRuns != 1 || receiptRuns != 0 {
		t.Fatalf("expected only expense handler, got expense=%d receipt=%d", expenseRuns, receiptRuns)
	}
}

func TestDispatcher_NilEventAndEmptyKindAreNoOps(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Publish(context.Background(), nil)
	d.Publish(context.Background(), ReceiptScanned{At: time.Now()})
}
