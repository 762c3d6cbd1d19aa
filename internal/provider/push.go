package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
)

const (
	pushFailureRate   = 0.02
	pushLatencyMin    = 200 * time.Millisecond
	pushLatencyMax    = 1000 * time.Millisecond
	pushHealthLatency = 100 * time.Millisecond

	pushMaxTitleLength = 100
	pushMaxBodyLength  = 200

	pushMinTokenLength = 64
	pushMaxTokenLength = 200
)

// PushProvider simulates a mobile push delivery backend.
type PushProvider struct {
	faults FaultSource
	logger *zap.Logger
	now    func() time.Time
}

func NewPushProvider(faults FaultSource, logger *zap.Logger) *PushProvider {
	if faults == nil {
		faults = NewRandomFaults(time.Now().UnixNano())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PushProvider{
		faults: faults,
		logger: logger,
		now:    time.Now,
	}
}

func (p *PushProvider) Channel() string { return domain.ChannelPush.String() }

func (p *PushProvider) Send(ctx context.Context, msg domain.NotificationMessage) (*domain.ProcessingResult, error) {
	start := p.now()

	token := msg.MetadataString("deviceToken", "pushToken", "fcmToken")
	if token == "" {
		return nil, Permanent("device token not found in message metadata")
	}
	if len(token) < pushMinTokenLength || len(token) > pushMaxTokenLength {
		return nil, Permanent("invalid device token: length %d outside %d-%d", len(token), pushMinTokenLength, pushMaxTokenLength)
	}

	title := msg.Title
	if len([]rune(title)) > pushMaxTitleLength {
		p.logger.Warn("push title truncated",
			zap.String("notificationId", msg.ID),
			zap.Int("length", len([]rune(title))),
		)
		title = truncate(title, pushMaxTitleLength)
	}

	body := msg.Content
	if len([]rune(body)) > pushMaxBodyLength {
		p.logger.Warn("push body truncated",
			zap.String("notificationId", msg.ID),
			zap.Int("length", len([]rune(body))),
		)
		body = truncate(body, pushMaxBodyLength)
	}

	p.logger.Info("sending push notification",
		zap.String("notificationId", msg.ID),
		zap.String("deviceToken", maskToken(token)),
	)

	if err := p.faults.Sleep(ctx, pushLatencyMin, pushLatencyMax); err != nil {
		return nil, fmt.Errorf("push send interrupted: %w", err)
	}
	if p.faults.Fail(pushFailureRate) {
		return nil, Transient("push backend rejected the message")
	}

	result := &domain.ProcessingResult{
		Success:        true,
		ProviderID:     fmt.Sprintf("push_%s", strings.ReplaceAll(uuid.NewString(), "-", "")),
		ProcessedAt:    p.now().UTC(),
		ProcessingTime: p.now().Sub(start),
		Metadata: map[string]any{
			"deviceToken": maskToken(token),
			"title":       title,
			"titleLength": len([]rune(title)),
			"bodyLength":  len([]rune(body)),
			"provider":    "PushProvider",
		},
	}

	p.logger.Info("push notification sent",
		zap.String("notificationId", msg.ID),
		zap.String("deviceToken", maskToken(token)),
		zap.String("providerId", result.ProviderID),
	)

	return result, nil
}

func (p *PushProvider) IsHealthy(ctx context.Context) bool {
	return p.faults.Sleep(ctx, pushHealthLatency, pushHealthLatency) == nil
}
