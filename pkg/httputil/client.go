// Package httputil provides HTTP client utilities with standard configurations.
package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// Default timeout for HTTP requests
	defaultTimeout = 30 * time.Second

	// Transport configuration constants
	maxIdleConns        = 50
	maxIdleConnsPerHost = 4
	idleConnTimeout     = 30 * time.Second

	defaultAttempts = 2
	retryDelay      = 250 * time.Millisecond
	userAgent       = "streamhub/1.0"
)

// StatusError is returned when a server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// NewHTTPClient creates a new HTTP client with the specified timeout.
// The client is configured with connection pooling and idle connection management.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     idleConnTimeout,
		},
	}
}

// NewDefaultHTTPClient creates a new HTTP client with default 30 second timeout.
func NewDefaultHTTPClient() *http.Client {
	return NewHTTPClient(defaultTimeout)
}

// GetJSON issues a GET and decodes the JSON body into out. Transport errors and
// 5xx/429 answers are retried; other statuses fail immediately.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out interface{}) error {
	return do(ctx, client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, out)
}

// PostForm issues a form-encoded POST and decodes the JSON body into out.
func PostForm(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, form url.Values, out interface{}) error {
	body := form.Encode()
	return do(ctx, client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, out)
}

// Delete issues a DELETE and discards the body.
func Delete(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) error {
	return do(ctx, client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, rawURL, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}, nil)
}

func do(ctx context.Context, client *http.Client, build func() (*http.Request, error), out interface{}) error {
	return retry.Do(
		func() error {
			req, err := build()
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("Accept", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to send request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				io.Copy(io.Discard, resp.Body)
				statusErr := &StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode}
				if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			if out == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(defaultAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
}
