// Package preferences is the read-only client for the external subscription
// service holding per-user channel, category, and quiet-hours settings.
package preferences

import (
	"context"

	"github.com/notifium/delivery-worker/internal/domain"
)

// Lookup is a typed oracle answer. Known is false when the oracle could not
// be reached or returned an unparseable or non-success response; callers must
// treat that Unknown outcome distinctly from a definitive false.
type Lookup struct {
	Value bool
	Known bool
}

func Known(value bool) Lookup { return Lookup{Value: value, Known: true} }

func Unknown() Lookup { return Lookup{} }

// Oracle exposes the three read operations the eligibility validator needs.
type Oracle interface {
	ChannelEnabled(ctx context.Context, userID string, channel domain.Channel) Lookup
	CategoryEnabled(ctx context.Context, userID, category string) Lookup
	InQuietHours(ctx context.Context, userID string) Lookup
}
