package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-bankfeed/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

func TestMemoryQueueEnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(4)

	msg := &job.ExecutionMessage{JobID: JobIDEnrichment, IdempotencyKey: "plaid:item-1"}
	if err := q.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if q.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", q.Depth())
	}

	delivery, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if delivery.Message().IdempotencyKey != "plaid:item-1" {
		t.Fatalf("expected original message, got %q", delivery.Message().IdempotencyKey)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if q.Depth() != 0 {
		t.Fatalf("expected depth 0 after ack, got %d", q.Depth())
	}
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded on empty queue, got %v", err)
	}
}

func TestMemoryQueueEnqueueBlocksWhenFull(t *testing.T) {
	q := NewMemoryQueue(1)
	if err := q.Enqueue(context.Background(), &job.ExecutionMessage{JobID: JobIDEnrichment}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDEnrichment}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded on full queue, got %v", err)
	}
}

func TestMemoryQueueNackRequeuesToBack(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(4)

	first := &job.ExecutionMessage{JobID: JobIDEnrichment, IdempotencyKey: "first"}
	second := &job.ExecutionMessage{JobID: JobIDEnrichment, IdempotencyKey: "second"}
	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	delivery, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := delivery.Nack(ctx, queue.NackOptions{Requeue: true, Reason: "transient"}); err != nil {
		t.Fatalf("nack: %v", err)
	}

	next, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue second: %v", err)
	}
	if next.Message().IdempotencyKey != "second" {
		t.Fatalf("expected requeued message to go to the back, got %q", next.Message().IdempotencyKey)
	}
	if len(q.DeadLettered()) != 0 {
		t.Fatalf("expected no dead letters on requeue")
	}
}

func TestMemoryQueueNackDeadLetters(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(4)
	if err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDEnrichment, IdempotencyKey: "bad"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	delivery, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: "malformed payload"}); err != nil {
		t.Fatalf("nack: %v", err)
	}

	parked := q.DeadLettered()
	if len(parked) != 1 {
		t.Fatalf("expected one dead letter, got %d", len(parked))
	}
	if parked[0].Reason != "malformed payload" {
		t.Fatalf("expected dead letter reason, got %q", parked[0].Reason)
	}
	if parked[0].Message.IdempotencyKey != "bad" {
		t.Fatalf("expected parked message, got %q", parked[0].Message.IdempotencyKey)
	}
	if q.Depth() != 0 {
		t.Fatalf("expected empty queue after dead letter, got depth %d", q.Depth())
	}
}

func TestMemoryQueueDeliverySettlesOnce(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(1)
	if err := q.Enqueue(ctx, &job.ExecutionMessage{JobID: JobIDEnrichment}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	delivery, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := delivery.Nack(ctx, queue.NackOptions{Requeue: true}); err == nil {
		t.Fatalf("expected error on double settlement")
	}
}

func TestMemoryQueueCarriesEnrichmentEndToEnd(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(8)
	enqueuer := NewEnqueuerAdapter(q)

	msg := &core.JobExecutionMessage{
		JobID: JobIDEnrichment,
		Parameters: map[string]any{
			"provider":    "teller",
			"session_id":  "enr-77",
			"account_ids": []string{"tel-acc-1", "tel-acc-2"},
		},
		IdempotencyKey: "teller:enr-77",
	}
	if err := enqueuer.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	var handled EnrichmentRequest
	consumer, err := NewEnrichmentConsumer(NewDequeuerAdapter(q, DefaultRetryPolicy()), func(_ context.Context, req EnrichmentRequest) error {
		handled = req
		return nil
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	if err := consumer.ConsumeOne(ctx); err != nil {
		t.Fatalf("consume: %v", err)
	}

	if handled.Provider != core.ProviderTeller {
		t.Fatalf("expected provider teller, got %q", handled.Provider)
	}
	if handled.SessionID != "enr-77" {
		t.Fatalf("expected session id enr-77, got %q", handled.SessionID)
	}
	if len(handled.AccountIDs) != 2 || handled.AccountIDs[1] != "tel-acc-2" {
		t.Fatalf("expected decoded account ids, got %#v", handled.AccountIDs)
	}
	if q.Depth() != 0 {
		t.Fatalf("expected drained queue, got depth %d", q.Depth())
	}
}
