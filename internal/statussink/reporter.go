// Package statussink pushes per-message processing status to the external
// notification registry. Pushes are best-effort: a failed push never changes
// the ack/retry/dead-letter decision already made for the message.
package statussink

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/notifium/delivery-worker/internal/domain"
)

const defaultSinkTimeout = 30 * time.Second

// Reporter pushes a status transition for a message id.
type Reporter interface {
	Report(ctx context.Context, messageID string, status domain.Status, result *domain.ProcessingResult) error
}

type statusUpdate struct {
	Status      string         `json:"status"`
	ProcessedAt time.Time      `json:"processedAt"`
	Result      *resultPayload `json:"result,omitempty"`
}

type resultPayload struct {
	Success          bool           `json:"success"`
	ErrorMessage     string         `json:"errorMessage,omitempty"`
	ProviderID       string         `json:"providerId,omitempty"`
	ProcessingTimeMS float64        `json:"processingTime"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// HTTPReporter delivers status updates to the Notification API.
type HTTPReporter struct {
	client  *resty.Client
	baseURL string
	now     func() time.Time
}

func NewHTTPReporter(baseURL string, timeout time.Duration) (*HTTPReporter, error) {
	if timeout <= 0 {
		timeout = defaultSinkTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewHTTPReporterWithClient(baseURL, client)
}

func NewHTTPReporterWithClient(baseURL string, client *resty.Client) (*HTTPReporter, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("notification api url is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid notification api url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	return &HTTPReporter{
		client:  client,
		baseURL: trimmedURL,
		now:     time.Now,
	}, nil
}

func (r *HTTPReporter) Report(ctx context.Context, messageID string, status domain.Status, result *domain.ProcessingResult) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("reporter is not initialized")
	}
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("message id is required")
	}

	update := statusUpdate{
		Status:      status.String(),
		ProcessedAt: r.now().UTC(),
	}
	if result != nil {
		update.Result = &resultPayload{
			Success:          result.Success,
			ErrorMessage:     result.ErrorMessage,
			ProviderID:       result.ProviderID,
			ProcessingTimeMS: float64(result.ProcessingTime) / float64(time.Millisecond),
			Metadata:         result.Metadata,
		}
	}

	endpoint := fmt.Sprintf("%s/api/notifications/%s/status", r.baseURL, url.PathEscape(messageID))

	response, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(update).
		Put(endpoint)
	if err != nil {
		return fmt.Errorf("status sink request failed: %w", err)
	}
	if !response.IsSuccess() {
		return fmt.Errorf("status sink returned status %d", response.StatusCode())
	}

	return nil
}
