package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
	"github.com/notifium/delivery-worker/internal/provider"
)

// Outcome classifies one pass of a message through the dispatcher.
type Outcome int

const (
	// OutcomeSent is a successful provider delivery.
	OutcomeSent Outcome = iota
	// OutcomeScheduled is a no-op ack: the message is scheduled for a future
	// instant and its eventual re-submission is owned elsewhere.
	OutcomeScheduled
	// OutcomeIneligible is a validation rejection; not retryable.
	OutcomeIneligible
	// OutcomeDeferred keeps the message queued without consuming an attempt.
	OutcomeDeferred
	// OutcomeTransientFailure is retryable with backoff.
	OutcomeTransientFailure
	// OutcomePermanentFailure is terminal without further retries.
	OutcomePermanentFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeScheduled:
		return "scheduled"
	case OutcomeIneligible:
		return "ineligible"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeTransientFailure:
		return "transient_failure"
	case OutcomePermanentFailure:
		return "permanent_failure"
	}
	return "unknown"
}

// Dispatcher resolves the provider for a message's channel and invokes it.
// Process never returns an error; every fault is folded into the result and
// outcome so the caller has exactly one decision path.
type Dispatcher struct {
	validator *Validator
	registry  *provider.Registry
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(validator *Validator, registry *provider.Registry, logger *zap.Logger) (*Dispatcher, error) {
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		validator: validator,
		registry:  registry,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (d *Dispatcher) Process(ctx context.Context, msg domain.NotificationMessage) (*domain.ProcessingResult, Outcome) {
	start := d.now()

	verdict, reason := d.validator.Validate(ctx, msg)
	switch verdict {
	case VerdictRejected:
		return d.failedResult(start, fmt.Sprintf("ineligible: %s", reason)), OutcomeIneligible
	case VerdictDeferred:
		return d.failedResult(start, reason), OutcomeDeferred
	}

	if msg.ScheduledFor != nil && msg.ScheduledFor.After(d.now()) {
		d.logger.Info("message scheduled for the future, acknowledging without dispatch",
			zap.String("notificationId", msg.ID),
			zap.Time("scheduledFor", *msg.ScheduledFor),
		)
		return &domain.ProcessingResult{
			Success:        true,
			ErrorMessage:   "scheduled for future delivery",
			ProcessedAt:    d.now().UTC(),
			ProcessingTime: d.now().Sub(start),
		}, OutcomeScheduled
	}

	channelProvider, ok := d.registry.Resolve(msg.Channel)
	if !ok {
		d.logger.Error("no provider registered for channel",
			zap.String("notificationId", msg.ID),
			zap.String("channel", msg.Channel.String()),
		)
		return d.failedResult(start, fmt.Sprintf("no provider for channel %q", msg.Channel)), OutcomePermanentFailure
	}

	if !channelProvider.IsHealthy(ctx) {
		d.logger.Warn("provider unhealthy",
			zap.String("notificationId", msg.ID),
			zap.String("channel", msg.Channel.String()),
		)
		return d.failedResult(start, fmt.Sprintf("provider for %q is unhealthy", msg.Channel)), OutcomeTransientFailure
	}

	result, err := channelProvider.Send(ctx, msg)
	if err != nil {
		outcome := OutcomePermanentFailure
		// A canceled send is left retryable so shutdown never dead-letters
		// an undelivered message.
		if provider.IsTransient(err) || errors.Is(err, context.Canceled) {
			outcome = OutcomeTransientFailure
		}

		d.logger.Warn("provider send failed",
			zap.String("notificationId", msg.ID),
			zap.String("channel", msg.Channel.String()),
			zap.String("outcome", outcome.String()),
			zap.Error(err),
		)
		return d.failedResult(start, err.Error()), outcome
	}

	if result == nil {
		return d.failedResult(start, "provider returned no result"), OutcomeTransientFailure
	}

	return result, OutcomeSent
}

func (d *Dispatcher) failedResult(start time.Time, errorMessage string) *domain.ProcessingResult {
	return &domain.ProcessingResult{
		Success:        false,
		ErrorMessage:   errorMessage,
		ProcessedAt:    d.now().UTC(),
		ProcessingTime: d.now().Sub(start),
	}
}
