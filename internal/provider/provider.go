package provider

import (
	"context"

	"github.com/notifium/delivery-worker/internal/domain"
)

// Provider is the outbound delivery port implemented once per channel.
type Provider interface {
	// Channel names the delivery channel this provider serves.
	Channel() string
	// Send delivers the message. A nil error means the returned result is a
	// successful delivery; failures are returned as *ProviderError so the
	// caller can classify them as transient or permanent.
	Send(ctx context.Context, msg domain.NotificationMessage) (*domain.ProcessingResult, error)
	// IsHealthy is a cheap, time-bounded capability probe independent of any
	// message content.
	IsHealthy(ctx context.Context) bool
}

// Registry resolves providers by channel name. Resolution is centralized
// here so no call site switches on channel strings.
type Registry struct {
	providers map[domain.Channel]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[domain.Channel]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		r.providers[domain.Channel(p.Channel())] = p
	}
	return r
}

// Resolve returns the provider registered for the channel, if any.
func (r *Registry) Resolve(channel domain.Channel) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[channel]
	return p, ok
}

// Channels lists the registered channel names.
func (r *Registry) Channels() []string {
	if r == nil {
		return nil
	}
	channels := make([]string, 0, len(r.providers))
	for channel := range r.providers {
		channels = append(channels, channel.String())
	}
	return channels
}
