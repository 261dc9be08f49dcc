package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/herald-sh/herald/internal/broker"
	"github.com/herald-sh/herald/internal/delivery"
	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/metrics"
)

// RetryScheduler parks a message body in a retry tier queue.
type RetryScheduler interface {
	PublishToTier(ctx context.Context, tier int, body []byte, retryCount int) error
}

// Consumer reads the main queue and dispatches each message through the
// registry. The main queue is always acked directly, never NACKed: retry is
// an explicit re-publish into a tier queue, which keeps the attempt cap and
// the backoff schedule observable and independent of broker redelivery
// semantics.
type Consumer struct {
	registry *Registry
	retries  RetryScheduler
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Consumer.
func New(registry *Registry, retries RetryScheduler, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{registry: registry, retries: retries, logger: logger, metrics: m}
}

// Run consumes the queue until ctx is cancelled or the delivery stream
// closes. Prefetch is pinned to 1: handlers have side effects, so at most
// one message is in flight per worker.
func (c *Consumer) Run(ctx context.Context, ch *amqp.Channel, queue string) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("setting prefetch: %w", err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming queue %q: %w", queue, err)
	}

	c.logger.Info("consumer started", "queue", queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.Process(ctx, d.Body, broker.ReadRetryCount(d.Headers))
			if err := d.Ack(false); err != nil {
				c.logger.Error("acking message", "error", err)
			}
		}
	}
}

// Process handles one raw message body. It never returns an error: every
// outcome ends in an ack, and transient failures are re-published to a tier
// queue instead.
func (c *Consumer) Process(ctx context.Context, body []byte, retryCount int) {
	entry, ok := c.registry.Match(body)
	if !ok {
		// Shape mismatches are not transient; drop without retry.
		c.logger.Warn("unrecognized event shape, dropping", "body_bytes", len(body))
		c.observeDrop("shape_mismatch")
		return
	}
	if c.metrics != nil {
		c.metrics.ObserveEvent(entry.EventType)
	}

	err := c.runHandler(ctx, entry, body)
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
		// Terminal: retrying cannot help.
		c.logger.Warn("terminal handler failure, dropping",
			"event_type", entry.EventType, "retry_count", retryCount, "error", err)
		c.observeDrop("terminal_failure")
		return
	}

	if errors.Is(err, delivery.ErrDeliveryRetryable) {
		c.logger.Warn("delivery failed, scheduling retry",
			"event_type", entry.EventType, "retry_count", retryCount, "error", err)
	} else {
		// Unexpected failures point at infrastructure or programming
		// faults; retry them like provider flakiness but log loudly.
		c.logger.Error("unexpected handler failure, scheduling retry",
			"event_type", entry.EventType, "retry_count", retryCount, "error", err)
	}
	c.scheduleRetry(ctx, entry.EventType, body, retryCount)
}

// runHandler executes the entry's handler with panic containment: a
// panicking handler must not take the consume loop down.
func (c *Consumer) runHandler(ctx context.Context, entry Entry, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", entry.EventType, r)
		}
	}()
	return entry.Handle(ctx, body)
}

// scheduleRetry re-publishes the original body to the next tier queue, or
// drops the message once the attempt cap is reached.
func (c *Consumer) scheduleRetry(ctx context.Context, eventType string, body []byte, retryCount int) {
	attempt := retryCount + 1
	if broker.MaxAttemptsReached(attempt) {
		c.logger.Error("max delivery attempts reached, dropping message",
			"event_type", eventType, "attempts", attempt)
		c.observeDrop("max_attempts")
		return
	}

	tier, ok := broker.TierForRetryCount(retryCount)
	if !ok {
		c.logger.Error("no retry tier for message, dropping",
			"event_type", eventType, "retry_count", retryCount)
		c.observeDrop("max_attempts")
		return
	}

	if err := c.retries.PublishToTier(ctx, tier, body, attempt); err != nil {
		// The message was already acked; a failed re-publish loses it.
		c.logger.Error("scheduling retry failed, message lost",
			"event_type", eventType, "tier", tier, "error", err)
		return
	}
	if c.metrics != nil {
		c.metrics.ObserveRetryScheduled(fmt.Sprintf("%d", tier))
	}
	c.logger.Info("retry scheduled",
		"event_type", eventType, "tier", tier,
		"retry_count", attempt, "delay", broker.RetryDelay(tier))
}

func (c *Consumer) observeDrop(reason string) {
	if c.metrics != nil {
		c.metrics.ObserveDrop(reason)
	}
}
