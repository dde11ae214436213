package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"audioscribe/keys"
	"audioscribe/logger"
)

// Executor performs one credential-bound HTTP call with bounded retry.
// Transient outcomes (rate limit, server error, network failure) are
// retried with growing backoff; everything else fails on the first attempt.
// The key is a pass-through parameter: the executor never touches the pool.
type Executor struct {
	httpClient  *http.Client
	maxAttempts int

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor builds an executor with the given default attempt budget.
func NewExecutor(maxAttempts int) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Executor{
		httpClient: &http.Client{
			// Per-call deadlines come from the request context; upload,
			// status and generate calls each carry different budgets.
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isTransientStatus reports whether a status code is worth retrying.
func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// Do executes the call, retrying transient failures up to maxAttempts
// times (0 means the executor default). The response body is returned on
// success.
func (e *Executor) Do(ctx context.Context, key keys.Key, method, url, contentType string, body []byte, maxAttempts int) ([]byte, error) {
	if maxAttempts <= 0 {
		maxAttempts = e.maxAttempts
	}

	var lastTransient error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(2*(attempt-1)) * time.Second
			logger.Debugf("Retrying %s %s in %s (attempt %d/%d)", method, url, backoff, attempt, maxAttempts)
			if err := e.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		respBody, status, err := e.doOnce(ctx, key, method, url, contentType, body)
		if err != nil {
			// Connection resets and timeouts are transient like 5xx.
			lastTransient = fmt.Errorf("network failure: %w", err)
			logger.Warnf("Request %s %s failed (attempt %d/%d): %v", method, url, attempt, maxAttempts, err)
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return respBody, nil
		case isTransientStatus(status):
			lastTransient = fmt.Errorf("transient HTTP %d: %s", status, apiErrorMessage(respBody))
			logger.Warnf("Request %s %s got status %d (attempt %d/%d)", method, url, status, attempt, maxAttempts)
		default:
			return nil, &RequestError{Status: status, Message: apiErrorMessage(respBody)}
		}
	}

	return nil, &RetriesExhaustedError{Attempts: maxAttempts, Last: lastTransient}
}

func (e *Executor) doOnce(ctx context.Context, key keys.Key, method, url, contentType string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-goog-api-key", string(key))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return respBody, resp.StatusCode, nil
}
