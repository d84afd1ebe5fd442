package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/nixlim/keyprint/internal/config"
)

// Client posts submissions to the logging and prediction endpoints.
type Client struct {
	httpClient *http.Client
	saveLogURL string
	predictURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client for the configured service. The default HTTP
// client has no timeout: a request that never answers leaves the
// submission pending.
func NewClient(cfg config.ServerConfig, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		saveLogURL: cfg.SaveLogURL(),
		predictURL: cfg.PredictURL(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts the payload to both endpoints concurrently and waits for both.
// The first transport failure cancels the other request and is returned
// wrapped in ErrTransport. HTTP status codes are not failures: the logging
// response is discarded and the prediction body is decoded whatever the
// status.
func (c *Client) Send(ctx context.Context, p Payload) (Prediction, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Prediction{}, fmt.Errorf("encoding payload: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := c.post(gctx, c.saveLogURL, body)
		if err != nil {
			return fmt.Errorf("%w: save_log: %w", ErrTransport, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})

	var pred Prediction
	g.Go(func() error {
		resp, err := c.post(gctx, c.predictURL, body)
		if err != nil {
			return fmt.Errorf("%w: predict: %w", ErrTransport, err)
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
			return fmt.Errorf("%w: decoding prediction (status %d): %w", ErrTransport, resp.StatusCode, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Prediction{}, err
	}
	return pred, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
