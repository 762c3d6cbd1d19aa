package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/notifium/delivery-worker/internal/domain"
)

// QuietHoursWindow is a per-user time-of-day window, possibly wrapping
// midnight, during which only critical notifications are delivered.
type QuietHoursWindow struct {
	Enabled bool
	Start   TimeOfDay
	End     TimeOfDay
}

// TimeOfDay is minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Contains reports whether t falls inside the window. A window whose start
// is after its end wraps midnight: {22:00, 08:00} contains 23:00 and 03:00
// but not 12:00.
func (w QuietHoursWindow) Contains(t time.Time) bool {
	if !w.Enabled {
		return false
	}

	now := NewTimeOfDay(t.Hour(), t.Minute())
	if w.Start <= w.End {
		return now >= w.Start && now <= w.End
	}
	return now >= w.Start || now <= w.End
}

// Snapshot is a read-only view of one user's notification preferences.
type Snapshot struct {
	Channels   map[domain.Channel]bool
	Categories map[string]bool
	QuietHours QuietHoursWindow
}

// SnapshotOracle serves preference lookups from in-memory snapshots. It
// backs tests and local runs that have no Subscription API.
type SnapshotOracle struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	now       func() time.Time
}

func NewSnapshotOracle() *SnapshotOracle {
	return &SnapshotOracle{
		snapshots: make(map[string]Snapshot),
		now:       time.Now,
	}
}

// SetSnapshot installs or replaces the snapshot for a user.
func (o *SnapshotOracle) SetSnapshot(userID string, snapshot Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots[userID] = snapshot
}

// SetClock overrides the clock used for quiet-hours evaluation.
func (o *SnapshotOracle) SetClock(now func() time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if now != nil {
		o.now = now
	}
}

func (o *SnapshotOracle) ChannelEnabled(_ context.Context, userID string, channel domain.Channel) Lookup {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot, ok := o.snapshots[userID]
	if !ok {
		return Unknown()
	}
	enabled, ok := snapshot.Channels[channel]
	if !ok {
		// Unlisted channels default to enabled, matching the subscription
		// service's behavior for users without explicit settings.
		return Known(true)
	}
	return Known(enabled)
}

func (o *SnapshotOracle) CategoryEnabled(_ context.Context, userID, category string) Lookup {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot, ok := o.snapshots[userID]
	if !ok {
		return Unknown()
	}
	enabled, ok := snapshot.Categories[category]
	if !ok {
		return Known(true)
	}
	return Known(enabled)
}

func (o *SnapshotOracle) InQuietHours(_ context.Context, userID string) Lookup {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot, ok := o.snapshots[userID]
	if !ok {
		return Unknown()
	}
	return Known(snapshot.QuietHours.Contains(o.now()))
}
