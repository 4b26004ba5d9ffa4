package gojob

import (
	"context"
	"fmt"
	"sync"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const defaultMemoryQueueCapacity = 256

// MemoryQueue is a bounded in-process queue satisfying the go-job enqueue
// and dequeue contracts. Deployments without a broker run enrichment through
// it; requeued deliveries go to the back of the line and dead-lettered ones
// are retained for inspection.
type MemoryQueue struct {
	mu         sync.Mutex
	messages   chan *job.ExecutionMessage
	deadLetter []DeadLetteredMessage
}

// DeadLetteredMessage pairs a failed message with the reason it was parked.
type DeadLetteredMessage struct {
	Message *job.ExecutionMessage
	Reason  string
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = defaultMemoryQueueCapacity
	}
	return &MemoryQueue{messages: make(chan *job.ExecutionMessage, capacity)}
}

// Enqueue blocks when the queue is full until space frees or ctx expires.
func (q *MemoryQueue) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if q == nil {
		return fmt.Errorf("gojob: memory queue is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	if q == nil {
		return nil, fmt.Errorf("gojob: memory queue is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case msg := <-q.messages:
		return &memoryDelivery{queue: q, msg: msg}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Depth reports how many messages are waiting.
func (q *MemoryQueue) Depth() int {
	if q == nil {
		return 0
	}
	return len(q.messages)
}

// DeadLettered returns a copy of the parked messages.
func (q *MemoryQueue) DeadLettered() []DeadLetteredMessage {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetteredMessage, len(q.deadLetter))
	copy(out, q.deadLetter)
	return out
}

func (q *MemoryQueue) park(msg *job.ExecutionMessage, reason string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deadLetter = append(q.deadLetter, DeadLetteredMessage{Message: msg, Reason: reason})
}

type memoryDelivery struct {
	queue   *MemoryQueue
	msg     *job.ExecutionMessage
	settled bool
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	if d == nil {
		return nil
	}
	return d.msg
}

func (d *memoryDelivery) Ack(context.Context) error {
	if d == nil || d.queue == nil {
		return fmt.Errorf("gojob: delivery is not attached to a queue")
	}
	if d.settled {
		return fmt.Errorf("gojob: delivery already settled")
	}
	d.settled = true
	return nil
}

func (d *memoryDelivery) Nack(ctx context.Context, opts queue.NackOptions) error {
	if d == nil || d.queue == nil {
		return fmt.Errorf("gojob: delivery is not attached to a queue")
	}
	if d.settled {
		return fmt.Errorf("gojob: delivery already settled")
	}
	d.settled = true
	if opts.DeadLetter || !opts.Requeue {
		d.queue.park(d.msg, opts.Reason)
		return nil
	}
	return d.queue.Enqueue(ctx, d.msg)
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryDelivery)(nil)
)
