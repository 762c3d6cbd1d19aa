package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/notifium/delivery-worker/internal/domain"
)

func TestQuietHoursWindowWrappingMidnight(t *testing.T) {
	t.Parallel()

	window := QuietHoursWindow{
		Enabled: true,
		Start:   NewTimeOfDay(22, 0),
		End:     NewTimeOfDay(8, 0),
	}

	tests := []struct {
		name string
		hour int
		want bool
	}{
		{name: "23:00 inside", hour: 23, want: true},
		{name: "03:00 inside", hour: 3, want: true},
		{name: "12:00 outside", hour: 12, want: false},
		{name: "22:00 boundary inside", hour: 22, want: true},
		{name: "08:00 boundary inside", hour: 8, want: true},
		{name: "09:00 outside", hour: 9, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			at := time.Date(2026, 1, 15, tt.hour, 0, 0, 0, time.UTC)
			if got := window.Contains(at); got != tt.want {
				t.Fatalf("Contains(%02d:00) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

func TestQuietHoursWindowSameDay(t *testing.T) {
	t.Parallel()

	window := QuietHoursWindow{
		Enabled: true,
		Start:   NewTimeOfDay(9, 0),
		End:     NewTimeOfDay(17, 0),
	}

	inside := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC)

	if !window.Contains(inside) {
		t.Fatal("12:00 should be inside a 09:00-17:00 window")
	}
	if window.Contains(outside) {
		t.Fatal("20:00 should be outside a 09:00-17:00 window")
	}
}

func TestQuietHoursWindowDisabled(t *testing.T) {
	t.Parallel()

	window := QuietHoursWindow{
		Start: NewTimeOfDay(0, 0),
		End:   NewTimeOfDay(23, 59),
	}
	if window.Contains(time.Now()) {
		t.Fatal("disabled window must never match")
	}
}

func TestSnapshotOracleLookups(t *testing.T) {
	t.Parallel()

	oracle := NewSnapshotOracle()
	oracle.SetSnapshot("user1", Snapshot{
		Channels:   map[domain.Channel]bool{domain.ChannelEmail: true, domain.ChannelSMS: false},
		Categories: map[string]bool{"marketing": false},
		QuietHours: QuietHoursWindow{
			Enabled: true,
			Start:   NewTimeOfDay(22, 0),
			End:     NewTimeOfDay(8, 0),
		},
	})
	oracle.SetClock(func() time.Time {
		return time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC)
	})

	ctx := context.Background()

	if lookup := oracle.ChannelEnabled(ctx, "user1", domain.ChannelEmail); !lookup.Known || !lookup.Value {
		t.Fatalf("email lookup = %+v, want known enabled", lookup)
	}
	if lookup := oracle.ChannelEnabled(ctx, "user1", domain.ChannelSMS); !lookup.Known || lookup.Value {
		t.Fatalf("sms lookup = %+v, want known disabled", lookup)
	}
	if lookup := oracle.ChannelEnabled(ctx, "user1", domain.ChannelPush); !lookup.Known || !lookup.Value {
		t.Fatalf("unlisted channel lookup = %+v, want known enabled", lookup)
	}
	if lookup := oracle.CategoryEnabled(ctx, "user1", "marketing"); !lookup.Known || lookup.Value {
		t.Fatalf("marketing lookup = %+v, want known disabled", lookup)
	}
	if lookup := oracle.InQuietHours(ctx, "user1"); !lookup.Known || !lookup.Value {
		t.Fatalf("quiet hours lookup = %+v, want known true at 23:00", lookup)
	}

	if lookup := oracle.ChannelEnabled(ctx, "stranger", domain.ChannelEmail); lookup.Known {
		t.Fatal("unknown user must yield Unknown")
	}
}
