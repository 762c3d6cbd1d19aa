package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/notifium/delivery-worker/internal/domain"
)

func emailMessage(metadata map[string]any) domain.NotificationMessage {
	return domain.NotificationMessage{
		ID:       "n-1",
		UserID:   "user1",
		Title:    "Welcome",
		Content:  "Hello there",
		Channel:  domain.ChannelEmail,
		Priority: domain.PriorityNormal,
		Metadata: metadata,
	}
}

func TestEmailProviderSendSuccess(t *testing.T) {
	t.Parallel()

	faults := &stubFaults{}
	p := NewEmailProvider(faults, nil)

	result, err := p.Send(context.Background(), emailMessage(map[string]any{"email": "user@example.com"}))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !result.Success {
		t.Fatal("result should be successful")
	}
	if !strings.HasPrefix(result.ProviderID, "email_") {
		t.Fatalf("provider id = %q, want email_ prefix", result.ProviderID)
	}
	if got := result.Metadata["recipient"]; got != "user@example.com" {
		t.Fatalf("recipient = %v", got)
	}
	if len(faults.failedProbs) != 1 || faults.failedProbs[0] != emailFailureRate {
		t.Fatalf("failure probability = %v, want [%v]", faults.failedProbs, emailFailureRate)
	}
}

func TestEmailProviderRecipientFallbackKey(t *testing.T) {
	t.Parallel()

	p := NewEmailProvider(&stubFaults{}, nil)
	if _, err := p.Send(context.Background(), emailMessage(map[string]any{"recipient": "user@example.com"})); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestEmailProviderMissingAddressIsPermanent(t *testing.T) {
	t.Parallel()

	p := NewEmailProvider(&stubFaults{}, nil)
	_, err := p.Send(context.Background(), emailMessage(nil))
	if err == nil {
		t.Fatal("expected error for missing address")
	}
	if IsTransient(err) {
		t.Fatal("missing address must be permanent")
	}
}

func TestEmailProviderMalformedAddressIsPermanent(t *testing.T) {
	t.Parallel()

	p := NewEmailProvider(&stubFaults{}, nil)
	_, err := p.Send(context.Background(), emailMessage(map[string]any{"email": "not-an-address"}))
	if err == nil {
		t.Fatal("expected error for malformed address")
	}
	if IsTransient(err) {
		t.Fatal("malformed address must be permanent")
	}
}

func TestEmailProviderInjectedFailureIsTransient(t *testing.T) {
	t.Parallel()

	p := NewEmailProvider(&stubFaults{fail: true}, nil)
	_, err := p.Send(context.Background(), emailMessage(map[string]any{"email": "user@example.com"}))
	if err == nil {
		t.Fatal("expected injected failure")
	}
	if !IsTransient(err) {
		t.Fatal("simulated backend failure must be transient")
	}
}

func TestEmailProviderHealthProbe(t *testing.T) {
	t.Parallel()

	p := NewEmailProvider(&stubFaults{}, nil)
	if !p.IsHealthy(context.Background()) {
		t.Fatal("provider should be healthy with a quiet fault source")
	}

	p = NewEmailProvider(&stubFaults{sleepErr: context.DeadlineExceeded}, nil)
	if p.IsHealthy(context.Background()) {
		t.Fatal("provider should be unhealthy when the probe times out")
	}
}
