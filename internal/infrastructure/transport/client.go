package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"SalesScanner/internal/domain"
	"SalesScanner/internal/ports"
)

// Client performs GET exchanges. Deadlines come from the caller's context.
type Client struct {
	http *http.Client
}

var _ ports.Fetcher = (*Client)(nil)

// NewClient wires an HTTP client; nil uses a client without a global timeout.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{}
	}
	return &Client{http: client}
}

// Get fetches the request and returns the body of a 2xx response.
// Every failure is reported as a transport failure.
func (c *Client) Get(ctx context.Context, r ports.Request) ([]byte, error) {
	target, err := r.URL()
	if err != nil {
		return nil, domain.Transport("build url", err)
	}
	op := "GET " + target

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.Transport(op, fmt.Errorf("build request: %w", err))
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.Transport(op, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Transport(op, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}
