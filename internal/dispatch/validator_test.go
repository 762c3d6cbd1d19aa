package dispatch

import (
	"context"
	"testing"

	"github.com/notifium/delivery-worker/internal/domain"
	"github.com/notifium/delivery-worker/internal/preferences"
)

type fakeOracle struct {
	channelEnabledFn  func(ctx context.Context, userID string, channel domain.Channel) preferences.Lookup
	categoryEnabledFn func(ctx context.Context, userID, category string) preferences.Lookup
	inQuietHoursFn    func(ctx context.Context, userID string) preferences.Lookup
}

func (f *fakeOracle) ChannelEnabled(ctx context.Context, userID string, channel domain.Channel) preferences.Lookup {
	if f.channelEnabledFn != nil {
		return f.channelEnabledFn(ctx, userID, channel)
	}
	return preferences.Known(true)
}

func (f *fakeOracle) CategoryEnabled(ctx context.Context, userID, category string) preferences.Lookup {
	if f.categoryEnabledFn != nil {
		return f.categoryEnabledFn(ctx, userID, category)
	}
	return preferences.Known(true)
}

func (f *fakeOracle) InQuietHours(ctx context.Context, userID string) preferences.Lookup {
	if f.inQuietHoursFn != nil {
		return f.inQuietHoursFn(ctx, userID)
	}
	return preferences.Known(false)
}

func validMessage() domain.NotificationMessage {
	return domain.NotificationMessage{
		ID:       "n-1",
		UserID:   "user1",
		Title:    "Hello",
		Content:  "World",
		Channel:  domain.ChannelEmail,
		Category: "marketing",
		Priority: domain.PriorityNormal,
	}
}

func TestValidatorEligible(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(&fakeOracle{}, nil)
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	verdict, reason := v.Validate(context.Background(), validMessage())
	if verdict != VerdictEligible {
		t.Fatalf("verdict = %s (%s), want eligible", verdict, reason)
	}
}

func TestValidatorStructuralRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(m *domain.NotificationMessage)
	}{
		{name: "empty id", mutate: func(m *domain.NotificationMessage) { m.ID = "" }},
		{name: "empty user", mutate: func(m *domain.NotificationMessage) { m.UserID = "" }},
		{name: "empty channel", mutate: func(m *domain.NotificationMessage) { m.Channel = "" }},
		{name: "unsupported channel", mutate: func(m *domain.NotificationMessage) { m.Channel = "pager" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			oracleCalled := false
			v, err := NewValidator(&fakeOracle{
				channelEnabledFn: func(context.Context, string, domain.Channel) preferences.Lookup {
					oracleCalled = true
					return preferences.Known(true)
				},
			}, nil)
			if err != nil {
				t.Fatalf("NewValidator() error = %v", err)
			}

			msg := validMessage()
			tt.mutate(&msg)

			verdict, _ := v.Validate(context.Background(), msg)
			if verdict != VerdictRejected {
				t.Fatalf("verdict = %s, want rejected", verdict)
			}
			if oracleCalled {
				t.Fatal("structural failures must short-circuit before the oracle")
			}
		})
	}
}

func TestValidatorChannelDisabled(t *testing.T) {
	t.Parallel()

	v, _ := NewValidator(&fakeOracle{
		channelEnabledFn: func(context.Context, string, domain.Channel) preferences.Lookup {
			return preferences.Known(false)
		},
	}, nil)

	verdict, _ := v.Validate(context.Background(), validMessage())
	if verdict != VerdictRejected {
		t.Fatalf("verdict = %s, want rejected", verdict)
	}
}

func TestValidatorCategoryDisabled(t *testing.T) {
	t.Parallel()

	v, _ := NewValidator(&fakeOracle{
		categoryEnabledFn: func(_ context.Context, _, category string) preferences.Lookup {
			if category != "marketing" {
				t.Fatalf("category = %q, want marketing", category)
			}
			return preferences.Known(false)
		},
	}, nil)

	verdict, _ := v.Validate(context.Background(), validMessage())
	if verdict != VerdictRejected {
		t.Fatalf("verdict = %s, want rejected", verdict)
	}
}

func TestValidatorEmptyCategorySkipsLookup(t *testing.T) {
	t.Parallel()

	v, _ := NewValidator(&fakeOracle{
		categoryEnabledFn: func(context.Context, string, string) preferences.Lookup {
			t.Fatal("category lookup must be skipped for empty categories")
			return preferences.Unknown()
		},
	}, nil)

	msg := validMessage()
	msg.Category = ""

	verdict, _ := v.Validate(context.Background(), msg)
	if verdict != VerdictEligible {
		t.Fatalf("verdict = %s, want eligible", verdict)
	}
}

func TestValidatorOracleUnknownDefers(t *testing.T) {
	t.Parallel()

	v, _ := NewValidator(&fakeOracle{
		channelEnabledFn: func(context.Context, string, domain.Channel) preferences.Lookup {
			return preferences.Unknown()
		},
	}, nil)

	verdict, _ := v.Validate(context.Background(), validMessage())
	if verdict != VerdictDeferred {
		t.Fatalf("verdict = %s, want deferred when the oracle is unavailable", verdict)
	}
}

func TestValidatorQuietHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		priority domain.Priority
		want     Verdict
	}{
		{name: "normal priority deferred", priority: domain.PriorityNormal, want: VerdictDeferred},
		{name: "high priority deferred", priority: domain.PriorityHigh, want: VerdictDeferred},
		{name: "critical delivered", priority: domain.PriorityCritical, want: VerdictEligible},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, _ := NewValidator(&fakeOracle{
				inQuietHoursFn: func(context.Context, string) preferences.Lookup {
					return preferences.Known(true)
				},
			}, nil)

			msg := validMessage()
			msg.Priority = tt.priority

			verdict, _ := v.Validate(context.Background(), msg)
			if verdict != tt.want {
				t.Fatalf("verdict = %s, want %s", verdict, tt.want)
			}
		})
	}
}

func TestValidatorQuietHoursUnknownDoesNotBlock(t *testing.T) {
	t.Parallel()

	v, _ := NewValidator(&fakeOracle{
		inQuietHoursFn: func(context.Context, string) preferences.Lookup {
			return preferences.Unknown()
		},
	}, nil)

	verdict, _ := v.Validate(context.Background(), validMessage())
	if verdict != VerdictEligible {
		t.Fatalf("verdict = %s, want eligible when quiet-hours status is unknown", verdict)
	}
}
