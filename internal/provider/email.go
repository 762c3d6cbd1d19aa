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
	emailFailureRate   = 0.05
	emailLatencyMin    = 500 * time.Millisecond
	emailLatencyMax    = 2000 * time.Millisecond
	emailHealthLatency = 100 * time.Millisecond
)

// EmailProvider simulates an email delivery backend.
type EmailProvider struct {
	faults FaultSource
	logger *zap.Logger
	now    func() time.Time
}

func NewEmailProvider(faults FaultSource, logger *zap.Logger) *EmailProvider {
	if faults == nil {
		faults = NewRandomFaults(time.Now().UnixNano())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EmailProvider{
		faults: faults,
		logger: logger,
		now:    time.Now,
	}
}

func (p *EmailProvider) Channel() string { return domain.ChannelEmail.String() }

func (p *EmailProvider) Send(ctx context.Context, msg domain.NotificationMessage) (*domain.ProcessingResult, error) {
	start := p.now()

	address := msg.MetadataString("email", "recipient")
	if address == "" {
		return nil, Permanent("email address not found in message metadata")
	}
	if !strings.Contains(address, "@") {
		return nil, Permanent("invalid email address %q", address)
	}

	p.logger.Info("sending email",
		zap.String("notificationId", msg.ID),
		zap.String("recipient", address),
		zap.String("subject", msg.Title),
	)

	if err := p.faults.Sleep(ctx, emailLatencyMin, emailLatencyMax); err != nil {
		return nil, fmt.Errorf("email send interrupted: %w", err)
	}
	if p.faults.Fail(emailFailureRate) {
		return nil, Transient("email backend rejected the message")
	}

	result := &domain.ProcessingResult{
		Success:        true,
		ProviderID:     fmt.Sprintf("email_%s", strings.ReplaceAll(uuid.NewString(), "-", "")),
		ProcessedAt:    p.now().UTC(),
		ProcessingTime: p.now().Sub(start),
		Metadata: map[string]any{
			"recipient": address,
			"subject":   msg.Title,
			"provider":  "EmailProvider",
		},
	}

	p.logger.Info("email sent",
		zap.String("notificationId", msg.ID),
		zap.String("providerId", result.ProviderID),
	)

	return result, nil
}

func (p *EmailProvider) IsHealthy(ctx context.Context) bool {
	return p.faults.Sleep(ctx, emailHealthLatency, emailHealthLatency) == nil
}
