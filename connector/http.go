package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPOptions configures an HTTPConnector.
type HTTPOptions struct {
	// BaseURL is prepended to every request path.
	BaseURL string
	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
	// Headers are attached to every request.
	Headers map[string]string
	// Client overrides the default HTTP client.
	Client *http.Client
}

// HTTPConnector exposes an HTTP endpoint as a connector. The operation is
// the HTTP method; params carry "path" and optionally "body".
type HTTPConnector struct {
	name string
	opts HTTPOptions
}

// NewHTTP constructs an HTTP connector under the given name.
func NewHTTP(name string, optFns ...func(o *HTTPOptions)) *HTTPConnector {
	opts := HTTPOptions{Timeout: 30 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPConnector{name: name, opts: opts}
}

// Name implements Connector.
func (c *HTTPConnector) Name() string { return c.name }

// Execute implements Connector. 2xx responses return the body; everything
// else is an error carrying the status.
func (c *HTTPConnector) Execute(ctx context.Context, operation string, params map[string]any) (string, error) {
	method := strings.ToUpper(operation)
	if method == "" {
		method = http.MethodGet
	}

	path, _ := params["path"].(string)
	url := c.opts.BaseURL + path

	var body io.Reader
	if raw, ok := params["body"].(string); ok && raw != "" {
		body = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", fmt.Errorf("connector %s: build request: %w", c.name, err)
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.opts.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("connector %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("connector %s: read response: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("connector %s: %s %s returned %s", c.name, method, url, resp.Status)
	}

	return string(data), nil
}
