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
	smsFailureRate   = 0.03
	smsLatencyMin    = 300 * time.Millisecond
	smsLatencyMax    = 1500 * time.Millisecond
	smsHealthLatency = 150 * time.Millisecond

	// smsMaxLength is the single-segment SMS character budget.
	smsMaxLength = 160

	smsMinDigits = 10
	smsMaxDigits = 15
)

// SMSProvider simulates an SMS delivery backend.
type SMSProvider struct {
	faults FaultSource
	logger *zap.Logger
	now    func() time.Time
}

func NewSMSProvider(faults FaultSource, logger *zap.Logger) *SMSProvider {
	if faults == nil {
		faults = NewRandomFaults(time.Now().UnixNano())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SMSProvider{
		faults: faults,
		logger: logger,
		now:    time.Now,
	}
}

func (p *SMSProvider) Channel() string { return domain.ChannelSMS.String() }

func (p *SMSProvider) Send(ctx context.Context, msg domain.NotificationMessage) (*domain.ProcessingResult, error) {
	start := p.now()

	phone := msg.MetadataString("phoneNumber", "phone")
	if phone == "" {
		return nil, Permanent("phone number not found in message metadata")
	}
	if digits := digitCount(phone); digits < smsMinDigits || digits > smsMaxDigits {
		return nil, Permanent("invalid phone number: %d digits outside %d-%d", digitCount(phone), smsMinDigits, smsMaxDigits)
	}

	body := msg.Content
	if strings.TrimSpace(msg.Title) != "" {
		body = fmt.Sprintf("%s: %s", msg.Title, msg.Content)
	}
	if len([]rune(body)) > smsMaxLength {
		p.logger.Warn("sms body truncated",
			zap.String("notificationId", msg.ID),
			zap.Int("length", len([]rune(body))),
		)
		body = truncate(body, smsMaxLength)
	}

	p.logger.Info("sending sms",
		zap.String("notificationId", msg.ID),
		zap.String("recipient", maskPhone(phone)),
		zap.Int("messageLength", len([]rune(body))),
	)

	if err := p.faults.Sleep(ctx, smsLatencyMin, smsLatencyMax); err != nil {
		return nil, fmt.Errorf("sms send interrupted: %w", err)
	}
	if p.faults.Fail(smsFailureRate) {
		return nil, Transient("sms backend rejected the message")
	}

	result := &domain.ProcessingResult{
		Success:        true,
		ProviderID:     fmt.Sprintf("sms_%s", strings.ReplaceAll(uuid.NewString(), "-", "")),
		ProcessedAt:    p.now().UTC(),
		ProcessingTime: p.now().Sub(start),
		Metadata: map[string]any{
			"recipient":     maskPhone(phone),
			"messageLength": len([]rune(body)),
			"provider":      "SMSProvider",
		},
	}

	p.logger.Info("sms sent",
		zap.String("notificationId", msg.ID),
		zap.String("recipient", maskPhone(phone)),
		zap.String("providerId", result.ProviderID),
	)

	return result, nil
}

func (p *SMSProvider) IsHealthy(ctx context.Context) bool {
	return p.faults.Sleep(ctx, smsHealthLatency, smsHealthLatency) == nil
}
