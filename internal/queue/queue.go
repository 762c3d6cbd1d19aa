// Package queue is the RabbitMQ binding: topology, the work-queue consumer
// that executes delivery decisions, and the publisher.
package queue

import (
	"context"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/notifium/delivery-worker/internal/domain"
)

const (
	// WorkQueue carries pending notifications.
	WorkQueue = "notifications"
	// RetryQueue parks retried and deferred messages. It has no consumer;
	// per-message TTL expiry dead-letters each message back onto WorkQueue.
	RetryQueue = "notifications.retry"
	// DeadLetterQueue receives terminally failed messages.
	DeadLetterQueue = "dlq.notifications"

	dlxExchangeName    = "notify.dlx"
	deadLetterRouteKey = "dead"

	// deliveryCountHeader tracks how many times the work queue has handed the
	// message to a worker. The broker header is authoritative; the payload's
	// own attempt counter is informational only.
	deliveryCountHeader = "x-delivery-count"

	reasonHeader     = "x-death-reason"
	diagnosticHeader = "x-death-description"

	// queueMaxPriority is the RabbitMQ x-max-priority value for the work
	// queue, matching the four domain priorities.
	queueMaxPriority int32 = 4
)

// Publisher publishes notification messages to the work queue.
type Publisher interface {
	Publish(ctx context.Context, msg domain.NotificationMessage) error
	Close() error
}

// DecisionHandler processes one delivery and returns the broker operation to
// perform. deliveryCount is 1 on the first delivery.
type DecisionHandler func(ctx context.Context, msg domain.NotificationMessage, deliveryCount int) domain.Decision

// Consumer consumes the work queue and executes the handler's decisions.
type Consumer interface {
	Consume(ctx context.Context, handler DecisionHandler) error
	Close() error
}

// PriorityValue maps domain priority to RabbitMQ message priority.
func PriorityValue(priority domain.Priority) uint8 {
	switch priority {
	case domain.PriorityCritical:
		return 4
	case domain.PriorityHigh:
		return 3
	case domain.PriorityNormal:
		return 2
	case domain.PriorityLow:
		return 1
	default:
		return 2
	}
}

// DeliveryCount extracts the delivery count header, defaulting to 1 for
// messages that have never been through the retry queue.
func DeliveryCount(headers amqp.Table) int {
	if headers == nil {
		return 1
	}

	switch v := headers[deliveryCountHeader].(type) {
	case int:
		return clampCount(v)
	case int8:
		return clampCount(int(v))
	case int16:
		return clampCount(int(v))
	case int32:
		return clampCount(int(v))
	case int64:
		return clampCount(int(v))
	case float64:
		return clampCount(int(v))
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return clampCount(n)
		}
	}
	return 1
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
