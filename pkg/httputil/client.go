package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/bookswap/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 100
)

// StatusError is returned when the remote service answers with a status
// that is not 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a JSON http client. Requests are rate limited and go through a
// circuit breaker that opens when the remote service keeps failing.
type Client struct {
	baseURL string
	client  *http.Client
	limiter ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
	header  map[string]string
}

// NewClient returns a client for the service at baseURL. Non positive
// timeout and rps fall back to defaults.
func NewClient(
	name, baseURL string, timeout time.Duration, rps int,
	header map[string]string,
) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if rps <= 0 {
		rps = defaultRateLimit
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: ratelimit.New(rps),
		cb:      circuitbreaker.NewCircuitBreaker(name),
		header:  header,
	}
}

// Do sends the request and decodes the JSON response into out, if not nil.
// A 4xx response is returned as *StatusError without counting as a failure
// of the remote service.
func (c *Client) Do(
	ctx context.Context, method, path string, in, out interface{},
) error {
	var statusErr *StatusError
	_, err := c.cb.Execute(func() (interface{}, error) {
		status, body, err := c.do(ctx, method, path, in)
		if err != nil {
			return nil, err
		}
		if status >= 500 {
			return nil, &StatusError{status, string(body)}
		}
		if status >= 400 {
			statusErr = &StatusError{status, string(body)}
			return nil, nil
		}
		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	if statusErr != nil {
		return statusErr
	}
	return nil
}

func (c *Client) do(
	ctx context.Context, method, path string, in interface{},
) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.header {
		req.Header.Set(key, value)
	}

	c.limiter.Take()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
