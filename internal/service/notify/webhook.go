package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/smart-home/internal/version"
)

var errWebhookStatus = errors.New("webhook returned an error status")

// Webhook posts events as JSON to a URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Notifier.
func (w *Webhook) Name() string {
	return "webhook"
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("home-hub"))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck // Body is drained and discarded.

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s: %w", resp.Status, errWebhookStatus)
	}

	return nil
}
