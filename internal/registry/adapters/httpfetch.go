package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultTimeout = 5 * time.Second

type options struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type Option func(*options)

// WithBaseURL overrides the upstream base URL (tests point it at a local
// server).
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(defaultBaseURL string, opts ...Option) options {
	o := options{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fetchJSON performs one upstream call and decodes the response, mapping
// every failure mode onto the FetchError taxonomy.
func fetchJSON(ctx context.Context, client *http.Client, upstream, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewFetchError(FetchMalformed, upstream, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return NewFetchError(FetchUnavailable, upstream, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return NewFetchError(FetchTimeout, upstream, "upstream timed out", err)
		}
		return NewFetchError(FetchUnavailable, upstream, "upstream unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NewFetchError(FetchNotFound, upstream, "no record for identifier", nil)
	case resp.StatusCode != http.StatusOK:
		return NewFetchError(FetchUnavailable, upstream,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewFetchError(FetchMalformed, upstream, "decode response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
