package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-bankfeed/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID: JobIDEnrichment,
		Parameters: map[string]any{
			"provider":    "plaid",
			"session_id":  "item-1",
			"account_ids": []string{"acc-1", "acc-2"},
		},
		IdempotencyKey: "plaid:item-1",
		DedupPolicy:    "drop",
	}

	converted := ToExecutionMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	roundTrip := FromExecutionMessage(converted)
	if roundTrip.JobID != original.JobID {
		t.Fatalf("expected job id %q, got %q", original.JobID, roundTrip.JobID)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}
	if roundTrip.DedupPolicy != original.DedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", original.DedupPolicy, roundTrip.DedupPolicy)
	}
	if roundTrip.Parameters["provider"] != "plaid" {
		t.Fatalf("expected parameters to survive mapping")
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(enqueuer)

	msg := &core.JobExecutionMessage{
		JobID: JobIDEnrichment,
		Parameters: map[string]any{
			"provider":    "teller",
			"session_id":  "enr-1",
			"account_ids": []string{"tel-acc-1"},
		},
		IdempotencyKey: "teller:enr-1",
	}
	if err := enqueueAdapter.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDEnrichment {
		t.Fatalf("expected mapped go-job message")
	}

	dequeuer := &stubQueueDequeuer{delivery: &stubQueueDelivery{msg: enqueuer.last}}
	dequeueAdapter := NewDequeuerAdapter(dequeuer, DefaultRetryPolicy())
	delivery, err := dequeueAdapter.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != JobIDEnrichment {
		t.Fatalf("expected mapped core message")
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !dequeuer.delivery.(*stubQueueDelivery).acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{JobID: JobIDEnrichment},
	}
	adapter := NewDeliveryAdapter(rawDelivery, RetryPolicy{
		MaxAttempts:     3,
		MaxDelay:        10 * time.Second,
		DeadLetterOnMax: true,
	})

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   30 * time.Second,
		Requeue: true,
		Reason:  "transient",
	}, 1); err != nil {
		t.Fatalf("nack attempt 1: %v", err)
	}
	if rawDelivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", rawDelivery.nackOpts.Delay)
	}
	if !rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected message to be requeued before max attempts")
	}

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Second,
		Requeue: true,
		Reason:  "still failing",
	}, 3); err != nil {
		t.Fatalf("nack max attempt: %v", err)
	}
	if rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected no requeue once max attempts is reached")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter once max attempts is reached")
	}
}

func TestEnrichmentConsumerAcksOnSuccess(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID: JobIDEnrichment,
			Parameters: map[string]any{
				"provider":    "gocardless",
				"session_id":  "req-1",
				"account_ids": []any{"gc-acc-1", "gc-acc-2"},
			},
			IdempotencyKey: "gocardless:req-1",
		},
	}
	dequeuer := NewDequeuerAdapter(&stubQueueDequeuer{delivery: rawDelivery}, DefaultRetryPolicy())

	var handled EnrichmentRequest
	consumer, err := NewEnrichmentConsumer(dequeuer, func(_ context.Context, req EnrichmentRequest) error {
		handled = req
		return nil
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}

	if err := consumer.ConsumeOne(ctx); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if handled.Provider != core.ProviderGoCardless {
		t.Fatalf("expected provider gocardless, got %q", handled.Provider)
	}
	if len(handled.AccountIDs) != 2 || handled.AccountIDs[0] != "gc-acc-1" {
		t.Fatalf("expected decoded account ids, got %#v", handled.AccountIDs)
	}
	if !rawDelivery.acked {
		t.Fatalf("expected delivery to be acked")
	}
}

func TestEnrichmentConsumerNacksWithAttemptCount(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID: JobIDEnrichment,
			Parameters: map[string]any{
				"provider":    "plaid",
				"session_id":  "item-9",
				"account_ids": []string{"pl-acc-1"},
			},
			IdempotencyKey: "plaid:item-9",
		},
	}
	dequeuer := &stubQueueDequeuer{delivery: rawDelivery}
	policy := RetryPolicy{MaxAttempts: 2, MaxDelay: time.Minute, DeadLetterOnMax: true}

	consumer, err := NewEnrichmentConsumer(NewDequeuerAdapter(dequeuer, policy), func(context.Context, EnrichmentRequest) error {
		return errors.New("downstream unavailable")
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}

	if err := consumer.ConsumeOne(ctx); err == nil {
		t.Fatalf("expected handler error to surface")
	}
	if rawDelivery.acked {
		t.Fatalf("expected no ack on failure")
	}
	if !rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected requeue on first attempt")
	}

	if err := consumer.ConsumeOne(ctx); err == nil {
		t.Fatalf("expected handler error to surface on retry")
	}
	if rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected no requeue once attempts are exhausted")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter once attempts are exhausted")
	}
}

func TestEnrichmentConsumerDeadLettersMalformedPayloads(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID:      JobIDEnrichment,
			Parameters: map[string]any{"provider": "plaid"},
		},
	}
	dequeuer := NewDequeuerAdapter(&stubQueueDequeuer{delivery: rawDelivery}, DefaultRetryPolicy())

	consumer, err := NewEnrichmentConsumer(dequeuer, func(context.Context, EnrichmentRequest) error {
		t.Fatalf("handler must not run for malformed payloads")
		return nil
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}

	if err := consumer.ConsumeOne(ctx); err == nil {
		t.Fatalf("expected decode error to surface")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected malformed payload to dead-letter")
	}
}

func TestWorkerHookAdapterEventMapping(t *testing.T) {
	now := time.Now().UTC().Add(-time.Second)
	coreHook := &capturingHook{}
	adapter := NewWorkerHookAdapter(coreHook)

	evt := worker.Event{
		Message: &job.ExecutionMessage{
			JobID:          JobIDEnrichment,
			IdempotencyKey: "plaid:item-1",
		},
		Attempt:   2,
		Delay:     5 * time.Second,
		Err:       errors.New("retry"),
		StartedAt: now,
		Duration:  250 * time.Millisecond,
	}

	adapter.OnRetry(context.Background(), evt)
	if coreHook.last.Message == nil {
		t.Fatalf("expected worker message mapping")
	}
	if coreHook.last.Message.JobID != JobIDEnrichment {
		t.Fatalf("expected job id mapping, got %q", coreHook.last.Message.JobID)
	}
	if coreHook.last.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", coreHook.last.Attempt)
	}
	if coreHook.last.Delay != 5*time.Second {
		t.Fatalf("expected delay 5s, got %s", coreHook.last.Delay)
	}
	if coreHook.last.Err == nil || coreHook.last.Err.Error() != "retry" {
		t.Fatalf("expected error mapping")
	}
}

type capturingHook struct {
	last core.JobWorkerEvent
}

func (h *capturingHook) OnStart(context.Context, core.JobWorkerEvent)   {}
func (h *capturingHook) OnSuccess(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnFailure(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnRetry(_ context.Context, event core.JobWorkerEvent) {
	h.last = event
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}
