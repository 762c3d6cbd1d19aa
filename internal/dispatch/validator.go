// Package dispatch contains the message pipeline: eligibility validation,
// provider dispatch, and the retry/dead-letter decision.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
	"github.com/notifium/delivery-worker/internal/preferences"
)

// Verdict is the eligibility outcome for a message.
type Verdict int

const (
	// VerdictEligible allows the message through to provider dispatch.
	VerdictEligible Verdict = iota
	// VerdictRejected means the message will not become eligible by
	// redelivery; it is dead-lettered.
	VerdictRejected
	// VerdictDeferred keeps the message queued without consuming an attempt
	// (quiet hours, preference oracle unavailable).
	VerdictDeferred
)

func (v Verdict) String() string {
	switch v {
	case VerdictEligible:
		return "eligible"
	case VerdictRejected:
		return "rejected"
	case VerdictDeferred:
		return "deferred"
	}
	return "unknown"
}

// Validator gates messages against structural rules and the user's
// preferences. It never fails open: an oracle outage defers rather than
// delivers.
type Validator struct {
	oracle preferences.Oracle
	logger *zap.Logger
}

func NewValidator(oracle preferences.Oracle, logger *zap.Logger) (*Validator, error) {
	if oracle == nil {
		return nil, fmt.Errorf("preference oracle is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Validator{oracle: oracle, logger: logger}, nil
}

// Validate checks the message in order: structure, channel preference,
// category preference, quiet hours. The first failing step decides the
// verdict; the returned reason is a human-readable diagnostic.
func (v *Validator) Validate(ctx context.Context, msg domain.NotificationMessage) (Verdict, string) {
	if err := msg.Validate(); err != nil {
		v.logger.Warn("message failed structural validation",
			zap.String("notificationId", msg.ID),
			zap.Error(err),
		)
		return VerdictRejected, err.Error()
	}

	channelLookup := v.oracle.ChannelEnabled(ctx, msg.UserID, msg.Channel)
	if !channelLookup.Known {
		return VerdictDeferred, fmt.Sprintf("channel preference for %q unavailable", msg.Channel)
	}
	if !channelLookup.Value {
		v.logger.Info("channel disabled for user",
			zap.String("notificationId", msg.ID),
			zap.String("userId", msg.UserID),
			zap.String("channel", msg.Channel.String()),
		)
		return VerdictRejected, fmt.Sprintf("channel %q disabled for user", msg.Channel)
	}

	if msg.Category != "" {
		categoryLookup := v.oracle.CategoryEnabled(ctx, msg.UserID, msg.Category)
		if !categoryLookup.Known {
			return VerdictDeferred, fmt.Sprintf("category preference for %q unavailable", msg.Category)
		}
		if !categoryLookup.Value {
			v.logger.Info("category disabled for user",
				zap.String("notificationId", msg.ID),
				zap.String("userId", msg.UserID),
				zap.String("category", msg.Category),
			)
			return VerdictRejected, fmt.Sprintf("category %q disabled for user", msg.Category)
		}
	}

	quietLookup := v.oracle.InQuietHours(ctx, msg.UserID)
	// An unknown quiet-hours answer does not block delivery; only a
	// confirmed quiet-hours window defers non-critical messages.
	if quietLookup.Known && quietLookup.Value && msg.Priority != domain.PriorityCritical {
		v.logger.Info("user in quiet hours, deferring",
			zap.String("notificationId", msg.ID),
			zap.String("userId", msg.UserID),
			zap.String("priority", msg.Priority.String()),
		)
		return VerdictDeferred, "user is in quiet hours"
	}

	return VerdictEligible, ""
}
