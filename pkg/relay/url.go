package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	relayerrors "github.com/randalmurphal/relay/pkg/relay/errors"
)

// Doer performs a single HTTP request. *http.Client satisfies it; the
// bus never depends on a concrete client beyond this.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultHTTPTimeout bounds a url dispatch when no client is supplied.
const defaultHTTPTimeout = 10 * time.Second

// URLDispatcher POSTs the event payload to a webhook address, carrying
// the target's headers as request headers.
type URLDispatcher struct {
	target Target
	client Doer
	retry  relayerrors.RetryConfig
}

// NewURLDispatcher creates a dispatcher for a url target. A nil client
// falls back to a stdlib client with the default timeout. A zero retry
// config disables retries.
func NewURLDispatcher(target Target, client Doer, retry relayerrors.RetryConfig) *URLDispatcher {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if retry.MaxAttempts <= 0 {
		retry = relayerrors.NoRetry
	}
	return &URLDispatcher{target: target, client: client, retry: retry}
}

// Dispatch implements Dispatcher. A non-2xx response is an error so
// the bus can report it; the response body is discarded either way.
func (d *URLDispatcher) Dispatch(ctx context.Context, event string, args Args, kwargs KWArgs) error {
	body, err := json.Marshal(NewPayload(event, args, kwargs))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	result := relayerrors.WithRetryContext(ctx, d.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.post(ctx, body)
	})
	return result.Err
}

func (d *URLDispatcher) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.target.Address, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.target.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain so the client can reuse the connection
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &relayerrors.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			Endpoint:   d.target.Address,
		}
	}
	return nil
}
