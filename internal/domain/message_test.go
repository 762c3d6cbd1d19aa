package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Channel
		wantErr bool
	}{
		{name: "valid lowercase", input: "email", want: ChannelEmail},
		{name: "valid uppercase with spaces", input: " SMS ", want: ChannelSMS},
		{name: "mixed case", input: "Push", want: ChannelPush},
		{name: "invalid", input: "carrier-pigeon", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseChannelFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseChannelFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseChannelFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseChannelFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	t.Parallel()

	ordered := []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Fatalf("Rank(%s)=%d should be below Rank(%s)=%d",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
}

func TestNotificationMessageUnmarshalJSON(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": "n-1",
		"userId": "user1",
		"title": "Hello",
		"content": "World",
		"channel": "EMAIL",
		"category": "marketing",
		"priority": 3,
		"metadata": {"email": "user@example.com", "simulated": true},
		"attempts": 1,
		"maxAttempts": 3
	}`

	var msg NotificationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}

	if msg.Channel != ChannelEmail {
		t.Fatalf("channel = %q, want email (normalized)", msg.Channel)
	}
	if msg.Priority != PriorityCritical {
		t.Fatalf("priority = %q, want critical (numeric 3)", msg.Priority)
	}
	if got := msg.MetadataString("email"); got != "user@example.com" {
		t.Fatalf("MetadataString(email) = %q", got)
	}
	if got := msg.MetadataString("simulated"); got != "true" {
		t.Fatalf("MetadataString(simulated) = %q, want rendered bool", got)
	}
}

func TestPriorityUnmarshalStringForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Priority
		wantErr bool
	}{
		{name: "lowercase", raw: `"critical"`, want: PriorityCritical},
		{name: "uppercase", raw: `"HIGH"`, want: PriorityHigh},
		{name: "numeric low", raw: `0`, want: PriorityLow},
		{name: "null defaults to normal", raw: `null`, want: PriorityNormal},
		{name: "out of range ordinal", raw: `9`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p Priority
			err := json.Unmarshal([]byte(tt.raw), &p)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error = %v", err)
			}
			if p != tt.want {
				t.Fatalf("priority = %q, want %q", p, tt.want)
			}
		})
	}
}

func TestNotificationMessageValidate(t *testing.T) {
	t.Parallel()

	valid := NotificationMessage{
		ID:      "n-1",
		UserID:  "user1",
		Channel: ChannelSMS,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(m *NotificationMessage)
	}{
		{name: "missing id", mutate: func(m *NotificationMessage) { m.ID = " " }},
		{name: "missing user", mutate: func(m *NotificationMessage) { m.UserID = "" }},
		{name: "bad channel", mutate: func(m *NotificationMessage) { m.Channel = "fax" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := valid
			tt.mutate(&msg)
			if !errors.Is(msg.Validate(), ErrValidation) {
				t.Fatal("Validate() should return ErrValidation")
			}
		})
	}
}

func TestAttemptCeiling(t *testing.T) {
	t.Parallel()

	msg := NotificationMessage{MaxAttempts: 0}
	if got := msg.AttemptCeiling(); got != DefaultMaxAttempts {
		t.Fatalf("AttemptCeiling() = %d, want default %d", got, DefaultMaxAttempts)
	}

	msg.MaxAttempts = 7
	if got := msg.AttemptCeiling(); got != 7 {
		t.Fatalf("AttemptCeiling() = %d, want 7", got)
	}
}

func TestScheduledForRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := NotificationMessage{
		ID:           "n-1",
		UserID:       "u-1",
		Channel:      ChannelPush,
		Priority:     PriorityNormal,
		ScheduledFor: &at,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	var decoded NotificationMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if decoded.ScheduledFor == nil || !decoded.ScheduledFor.Equal(at) {
		t.Fatalf("scheduledFor = %v, want %v", decoded.ScheduledFor, at)
	}
}
