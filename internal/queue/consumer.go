package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
)

type RabbitMQConsumer struct {
	client   *RabbitMQ
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQConsumer(client *RabbitMQ, prefetch int, logger *zap.Logger) *RabbitMQConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQConsumer{
		client:   client,
		prefetch: prefetch,
		logger:   logger,
	}
}

func (c *RabbitMQConsumer) Consume(ctx context.Context, handler DecisionHandler) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if handler == nil {
		return fmt.Errorf("decision handler is required")
	}

	backoff := reconnectBackoff
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = reconnectBackoff
			continue
		}

		c.logger.Warn("consumer loop error, backing off",
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *RabbitMQConsumer) consumeOnce(ctx context.Context, handler DecisionHandler) error {
	ch, err := c.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck // best-effort channel close

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		WorkQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %w", WorkQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			// Unacked deliveries return to the queue when the channel closes.
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			if err := c.handleDelivery(ctx, ch, d, handler); err != nil {
				return err
			}
		}
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, handler DecisionHandler) error {
	var msg domain.NotificationMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Warn("dead-lettering message: invalid JSON",
			zap.Error(err),
			zap.String("messageId", d.MessageId),
		)
		decision := domain.DeadLetter(domain.ReasonInvalidMessage, fmt.Sprintf("message deserialization failed: %v", err))
		return c.executeDecision(ctx, ch, d, decision)
	}

	deliveryCount := DeliveryCount(d.Headers)
	decision := handler(ctx, msg, deliveryCount)

	return c.executeDecision(ctx, ch, d, decision)
}

func (c *RabbitMQConsumer) executeDecision(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, decision domain.Decision) error {
	switch decision.Action {
	case domain.ActionAck:
		if err := d.Ack(false); err != nil {
			return fmt.Errorf("failed to ack delivery: %w", err)
		}
		return nil

	case domain.ActionRetry:
		return c.requeue(ctx, ch, d, decision.Delay, DeliveryCount(d.Headers)+1)

	case domain.ActionDefer:
		return c.requeue(ctx, ch, d, decision.Delay, DeliveryCount(d.Headers))

	case domain.ActionDeadLetter:
		publishing := deadLetterPublishing(d, decision.Reason, decision.Diagnostic)
		if err := ch.PublishWithContext(ctx, dlxExchangeName, deadLetterRouteKey, false, false, publishing); err != nil {
			return fmt.Errorf("failed to dead-letter message: %w", err)
		}
		c.logger.Warn("message dead-lettered",
			zap.String("messageId", d.MessageId),
			zap.String("reason", decision.Reason.String()),
			zap.String("description", decision.Diagnostic),
		)
		if err := d.Ack(false); err != nil {
			return fmt.Errorf("failed to ack dead-lettered delivery: %w", err)
		}
		return nil
	}

	return fmt.Errorf("unknown decision action %q", decision.Action)
}

// requeue parks a copy of the delivery on the retry queue, where TTL expiry
// returns it to the work queue, and acks the original. Retries carry an
// incremented delivery count; deferrals keep the count unchanged.
func (c *RabbitMQConsumer) requeue(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, delay time.Duration, deliveryCount int) error {
	publishing := requeuePublishing(d, delay, deliveryCount)
	if err := ch.PublishWithContext(ctx, "", RetryQueue, false, false, publishing); err != nil {
		return fmt.Errorf("failed to requeue message: %w", err)
	}
	if err := d.Ack(false); err != nil {
		return fmt.Errorf("failed to ack requeued delivery: %w", err)
	}
	return nil
}

func requeuePublishing(d amqp.Delivery, delay time.Duration, deliveryCount int) amqp.Publishing {
	if delay < time.Second {
		delay = time.Second
	}

	headers := cloneHeaders(d.Headers)
	headers[deliveryCountHeader] = int32(deliveryCount)

	return amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    d.MessageId,
		Priority:     d.Priority,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Headers:      headers,
		Body:         d.Body,
	}
}

func deadLetterPublishing(d amqp.Delivery, reason domain.DeadLetterReason, diagnostic string) amqp.Publishing {
	headers := cloneHeaders(d.Headers)
	headers[reasonHeader] = reason.String()
	headers[diagnosticHeader] = diagnostic

	return amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    d.MessageId,
		Priority:     d.Priority,
		Headers:      headers,
		Body:         d.Body,
	}
}

func cloneHeaders(headers amqp.Table) amqp.Table {
	cloned := make(amqp.Table, len(headers)+2)
	for k, v := range headers {
		cloned[k] = v
	}
	return cloned
}

func (c *RabbitMQConsumer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
