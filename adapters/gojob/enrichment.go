package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-bankfeed/core"
)

// EnrichmentRequest is the decoded payload of a bankfeed.enrichment.requested
// job, matching what the engine enqueues after a successful sync.
type EnrichmentRequest struct {
	Provider   core.ProviderID
	SessionID  string
	AccountIDs []string
}

// EnrichmentHandler performs the downstream enrichment for one request.
type EnrichmentHandler func(ctx context.Context, req EnrichmentRequest) error

// EnrichmentConsumer drains enrichment jobs from a dequeuer: ack on handler
// success, bounded nack on failure. Attempts are tracked per idempotency key
// so the retry policy sees real attempt counts.
type EnrichmentConsumer struct {
	dequeuer core.JobDequeuer
	handler  EnrichmentHandler
	attempts map[string]int
}

func NewEnrichmentConsumer(dequeuer core.JobDequeuer, handler EnrichmentHandler) (*EnrichmentConsumer, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("gojob: enrichment handler is required")
	}
	return &EnrichmentConsumer{
		dequeuer: dequeuer,
		handler:  handler,
		attempts: map[string]int{},
	}, nil
}

// ConsumeOne pulls a single delivery and settles it. It returns the handler
// error so callers can log it; queue settlement already happened.
func (c *EnrichmentConsumer) ConsumeOne(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("gojob: consumer is not configured")
	}
	delivery, err := c.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	msg := delivery.Message()
	if msg == nil || msg.JobID != JobIDEnrichment {
		return delivery.Nack(ctx, core.JobNackOptions{
			DeadLetter: true,
			Reason:     "unexpected job id",
		})
	}

	req, err := DecodeEnrichmentRequest(msg)
	if err != nil {
		if nackErr := delivery.Nack(ctx, core.JobNackOptions{
			DeadLetter: true,
			Reason:     err.Error(),
		}); nackErr != nil {
			return nackErr
		}
		return err
	}

	key := msg.IdempotencyKey
	if key == "" {
		key = string(req.Provider) + ":" + req.SessionID
	}
	c.attempts[key]++

	if handlerErr := c.handler(ctx, req); handlerErr != nil {
		opts := core.JobNackOptions{
			Delay:   retryDelay(c.attempts[key]),
			Requeue: true,
			Reason:  handlerErr.Error(),
		}
		if settled, ok := delivery.(interface {
			NackForAttempt(context.Context, core.JobNackOptions, int) error
		}); ok {
			if nackErr := settled.NackForAttempt(ctx, opts, c.attempts[key]); nackErr != nil {
				return nackErr
			}
		} else if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
			return nackErr
		}
		return handlerErr
	}

	delete(c.attempts, key)
	return delivery.Ack(ctx)
}

// Run consumes until the context is cancelled. Handler failures are settled
// per delivery and do not stop the loop.
func (c *EnrichmentConsumer) Run(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("gojob: consumer is not configured")
	}
	for {
		if err := c.ConsumeOne(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// DecodeEnrichmentRequest validates and extracts the enqueue-side parameters.
func DecodeEnrichmentRequest(msg *core.JobExecutionMessage) (EnrichmentRequest, error) {
	if msg == nil {
		return EnrichmentRequest{}, fmt.Errorf("gojob: execution message is required")
	}
	provider := strings.TrimSpace(stringParam(msg.Parameters, "provider"))
	if provider == "" {
		return EnrichmentRequest{}, fmt.Errorf("gojob: enrichment request has no provider")
	}
	sessionID := strings.TrimSpace(stringParam(msg.Parameters, "session_id"))
	accountIDs := stringSliceParam(msg.Parameters, "account_ids")
	if len(accountIDs) == 0 {
		return EnrichmentRequest{}, fmt.Errorf("gojob: enrichment request has no accounts")
	}
	return EnrichmentRequest{
		Provider:   core.ProviderID(provider),
		SessionID:  sessionID,
		AccountIDs: accountIDs,
	}, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := time.Duration(attempt) * 5 * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	value, _ := params[key].(string)
	return value
}

func stringSliceParam(params map[string]any, key string) []string {
	if params == nil {
		return nil
	}
	switch value := params[key].(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
