package preferences

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/notifium/delivery-worker/internal/domain"
)

const defaultOracleTimeout = 30 * time.Second

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

type quietHoursResponse struct {
	InQuietHours bool `json:"inQuietHours"`
}

// HTTPOracle queries the Subscription API over HTTP. Every failure mode
// (transport, non-2xx, parse) yields an Unknown lookup, never a guess.
type HTTPOracle struct {
	client  *resty.Client
	baseURL string
	logger  *zap.Logger
}

func NewHTTPOracle(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPOracle, error) {
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewHTTPOracleWithClient(baseURL, client, logger)
}

func NewHTTPOracleWithClient(baseURL string, client *resty.Client, logger *zap.Logger) (*HTTPOracle, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("subscription api url is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid subscription api url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPOracle{
		client:  client,
		baseURL: trimmedURL,
		logger:  logger,
	}, nil
}

func (o *HTTPOracle) ChannelEnabled(ctx context.Context, userID string, channel domain.Channel) Lookup {
	path := fmt.Sprintf("%s/api/subscription/user/%s/channels/%s/enabled",
		o.baseURL, url.PathEscape(userID), url.PathEscape(channel.String()))

	var body enabledResponse
	if !o.get(ctx, path, &body, "channel-enabled") {
		return Unknown()
	}
	return Known(body.Enabled)
}

func (o *HTTPOracle) CategoryEnabled(ctx context.Context, userID, category string) Lookup {
	path := fmt.Sprintf("%s/api/subscription/user/%s/categories/%s/enabled",
		o.baseURL, url.PathEscape(userID), url.PathEscape(category))

	var body enabledResponse
	if !o.get(ctx, path, &body, "category-enabled") {
		return Unknown()
	}
	return Known(body.Enabled)
}

func (o *HTTPOracle) InQuietHours(ctx context.Context, userID string) Lookup {
	path := fmt.Sprintf("%s/api/subscription/user/%s/quiet-hours",
		o.baseURL, url.PathEscape(userID))

	var body quietHoursResponse
	if !o.get(ctx, path, &body, "quiet-hours") {
		return Unknown()
	}
	return Known(body.InQuietHours)
}

func (o *HTTPOracle) get(ctx context.Context, path string, out any, lookup string) bool {
	if o == nil || o.client == nil {
		return false
	}

	response, err := o.client.R().
		SetContext(ctx).
		SetResult(out).
		Get(path)
	if err != nil {
		o.logger.Warn("preference oracle request failed",
			zap.String("lookup", lookup),
			zap.Error(err),
		)
		return false
	}
	if !response.IsSuccess() {
		o.logger.Warn("preference oracle returned non-success status",
			zap.String("lookup", lookup),
			zap.Int("status", response.StatusCode()),
		)
		return false
	}

	return true
}
