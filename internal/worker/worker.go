// Package worker runs the consume loop: rate limiting, status reporting,
// dispatch, and the resulting broker decision for every delivery.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifium/delivery-worker/internal/dispatch"
	"github.com/notifium/delivery-worker/internal/domain"
	"github.com/notifium/delivery-worker/internal/observability"
	"github.com/notifium/delivery-worker/internal/queue"
	"github.com/notifium/delivery-worker/internal/ratelimit"
	"github.com/notifium/delivery-worker/internal/statussink"
)

const (
	minWorkerConcurrency = 1

	// limiterUnavailableDelay parks a message when the rate limiter itself
	// fails. No attempt was made, so the delivery count must not move.
	limiterUnavailableDelay = 30 * time.Second
)

type Worker struct {
	consumer          queue.Consumer
	dispatcher        *dispatch.Dispatcher
	controller        *dispatch.Controller
	rateLimiter       ratelimit.RateLimiter
	statusSink        statussink.Reporter
	logger            *zap.Logger
	metrics           *observability.Metrics
	concurrency       int
	maxProcessingTime time.Duration
	now               func() time.Time
}

func NewWorker(
	consumer queue.Consumer,
	dispatcher *dispatch.Dispatcher,
	controller *dispatch.Controller,
	rateLimiter ratelimit.RateLimiter,
	statusSink statussink.Reporter,
	concurrency int,
	maxProcessingTime time.Duration,
	logger *zap.Logger,
) (*Worker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if controller == nil {
		return nil, fmt.Errorf("retry controller is required")
	}
	if rateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		consumer:          consumer,
		dispatcher:        dispatcher,
		controller:        controller,
		rateLimiter:       rateLimiter,
		statusSink:        statusSink,
		logger:            logger,
		concurrency:       concurrency,
		maxProcessingTime: maxProcessingTime,
		now:               time.Now,
	}, nil
}

func (w *Worker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start consumes the work queue with the configured concurrency until the
// context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, w.ProcessMessage)
			if err != nil {
				w.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

// Stop closes the broker consumer. Deliveries still in flight are left
// unacked and will be redelivered.
func (w *Worker) Stop() error {
	if w == nil || w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}

// ProcessMessage handles one delivery end to end and returns the broker
// decision. It never returns a zero decision: panics and infrastructure
// faults are folded into defer, retry, or dead-letter actions.
func (w *Worker) ProcessMessage(ctx context.Context, msg domain.NotificationMessage, deliveryCount int) (decision domain.Decision) {
	if w.maxProcessingTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.maxProcessingTime)
		defer cancel()
	}

	ctx = observability.WithMessageID(ctx, msg.ID)
	logger := observability.WithContextLogger(w.logger, ctx)
	channel := msg.Channel.String()

	w.metrics.IncWorkerInFlight(channel)
	defer w.metrics.DecWorkerInFlight(channel)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing message", zap.Any("panic", r))
			decision = domain.DeadLetter(domain.ReasonProcessingError, fmt.Sprintf("panic: %v", r))
		}
		w.recordDecision(channel, decision)
	}()

	if err := w.rateLimiter.Wait(ctx, channel); err != nil {
		logger.Warn("rate limiter unavailable, deferring message", zap.Error(err))
		return domain.Defer(limiterUnavailableDelay, fmt.Sprintf("rate limiter unavailable: %v", err))
	}

	w.reportStatus(ctx, logger, msg.ID, domain.StatusProcessing, nil)

	logger.Info("processing message",
		zap.String("channel", channel),
		zap.String("priority", msg.Priority.String()),
		zap.Int("deliveryCount", deliveryCount),
	)

	sendStart := w.now()
	result, outcome := w.dispatcher.Process(ctx, msg)
	w.metrics.ObserveNotificationSendDuration(channel, w.now().Sub(sendStart))

	decision = w.controller.Decide(msg, outcome, result, deliveryCount)

	switch outcome {
	case dispatch.OutcomeSent, dispatch.OutcomeScheduled:
		w.metrics.IncNotificationSent(channel)
		w.reportStatus(ctx, logger, msg.ID, domain.StatusSent, result)
	default:
		w.metrics.IncNotificationFailed(channel, outcome.String())
		if decision.Action == domain.ActionDeadLetter {
			w.reportStatus(ctx, logger, msg.ID, domain.StatusFailed, result)
		}
	}

	logger.Info("message processed",
		zap.String("outcome", outcome.String()),
		zap.String("action", string(decision.Action)),
	)

	return decision
}

func (w *Worker) recordDecision(channel string, decision domain.Decision) {
	switch decision.Action {
	case domain.ActionRetry:
		w.metrics.IncRetryScheduled(channel)
	case domain.ActionDefer:
		w.metrics.IncDeferred(channel)
	case domain.ActionDeadLetter:
		w.metrics.IncDeadLettered(decision.Reason.String())
	}
}

// reportStatus pushes a status transition to the sink. Failures are logged
// and counted but never change the delivery decision.
func (w *Worker) reportStatus(ctx context.Context, logger *zap.Logger, messageID string, status domain.Status, result *domain.ProcessingResult) {
	if w.statusSink == nil {
		return
	}

	if err := w.statusSink.Report(ctx, messageID, status, result); err != nil {
		w.metrics.IncStatusSinkError()
		logger.Warn("status sink push failed",
			zap.String("status", status.String()),
			zap.Error(err),
		)
	}
}
