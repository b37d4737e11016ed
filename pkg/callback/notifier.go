package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"oip/quotesync/pkg/logger"
	"oip/quotesync/pkg/metrics"
)

// DeliveryError the callback endpoint could not be reached or answered non 2xx.
type DeliveryError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("callback %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("callback %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier posts job outcomes to caller supplied endpoints.
type Notifier interface {
	// Notify is fire-and-forget: delivery failures are logged and swallowed.
	Notify(ctx context.Context, url string, payload interface{})
}

// HTTPNotifier Notifier over plain HTTP POST
type HTTPNotifier struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewHTTPNotifier creates a notifier whose requests time out after timeout.
func NewHTTPNotifier(timeout time.Duration, log logger.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Notify implements Notifier. An empty url skips delivery.
func (n *HTTPNotifier) Notify(ctx context.Context, url string, payload interface{}) {
	if url == "" {
		n.logger.Warnf(ctx, "[Callback] No callbackUrl provided, skipping callback")
		return
	}

	if err := n.Send(ctx, url, payload); err != nil {
		metrics.CallbackDeliveries.WithLabelValues(metrics.OutcomeFailed).Inc()
		n.logger.Errorf(ctx, "[Callback] Failed to execute callback: %v", err)
		return
	}

	metrics.CallbackDeliveries.WithLabelValues(metrics.OutcomeSucceeded).Inc()
	n.logger.Infof(ctx, "[Callback] Callback executed successfully: %s", url)
}

// Send performs a single POST and reports failures as *DeliveryError. No retries.
func (n *HTTPNotifier) Send(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{URL: url, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	// only the status code matters
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{URL: url, StatusCode: resp.StatusCode}
	}
	return nil
}
