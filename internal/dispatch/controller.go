package dispatch

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
)

const (
	// baseRetryDelay doubles per delivery: attempt 1 waits 2s, attempt 2
	// waits 4s, attempt 3 waits 8s.
	baseRetryDelay = time.Second
	maxRetryDelay  = 5 * time.Minute

	// defaultDeferDelay is how long a deferred message (quiet hours, oracle
	// outage) stays parked before redelivery.
	defaultDeferDelay = 5 * time.Minute
)

// Controller turns a dispatch outcome into the single broker operation the
// consumer must perform. The broker delivery count is authoritative for the
// dead-letter decision; the message's own ceiling only sets the limit it is
// compared against.
type Controller struct {
	logger     *zap.Logger
	deferDelay time.Duration
}

func NewController(deferDelay time.Duration, logger *zap.Logger) *Controller {
	if deferDelay <= 0 {
		deferDelay = defaultDeferDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{logger: logger, deferDelay: deferDelay}
}

func (c *Controller) Decide(msg domain.NotificationMessage, outcome Outcome, result *domain.ProcessingResult, deliveryCount int) domain.Decision {
	if deliveryCount < 1 {
		deliveryCount = 1
	}

	switch outcome {
	case OutcomeSent, OutcomeScheduled:
		return domain.Ack()

	case OutcomeIneligible:
		return domain.DeadLetter(domain.ReasonInvalidMessage, diagnostic(result, "message is not eligible for delivery"))

	case OutcomeDeferred:
		return domain.Defer(c.deferDelay, diagnostic(result, "delivery deferred"))

	case OutcomePermanentFailure:
		return domain.DeadLetter(domain.ReasonProcessingError, diagnostic(result, "permanent dispatch failure"))

	case OutcomeTransientFailure:
		ceiling := msg.AttemptCeiling()
		if deliveryCount >= ceiling {
			c.logger.Warn("max delivery attempts exceeded",
				zap.String("notificationId", msg.ID),
				zap.Int("deliveryCount", deliveryCount),
				zap.Int("maxAttempts", ceiling),
			)
			return domain.DeadLetter(
				domain.ReasonMaxAttemptsExceeded,
				fmt.Sprintf("failed after %d attempts: %s", deliveryCount, diagnostic(result, "transient failure")),
			)
		}
		return domain.Retry(RetryDelay(deliveryCount))
	}

	// Unknown outcomes are treated as unhandled faults.
	return domain.DeadLetter(domain.ReasonProcessingError, fmt.Sprintf("unknown dispatch outcome %d", outcome))
}

// RetryDelay computes the exponential backoff for the given delivery count:
// 2^count seconds, capped.
func RetryDelay(deliveryCount int) time.Duration {
	if deliveryCount < 1 {
		deliveryCount = 1
	}

	delay := baseRetryDelay
	for i := 0; i < deliveryCount; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}

func diagnostic(result *domain.ProcessingResult, fallback string) string {
	if result != nil && result.ErrorMessage != "" {
		return result.ErrorMessage
	}
	return fallback
}
