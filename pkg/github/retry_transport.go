package github

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	// retryAttempts is the default number of attempts for a request, including the first.
	retryAttempts = 3
	// retryDelay is the fixed pause between attempts.
	retryDelay = 1 * time.Second
	// maxRequestSize limits request body size to prevent memory issues.
	maxRequestSize = 1 * 1024 * 1024 // 1MB
)

// RetryTransport wraps an http.RoundTripper and repeats requests that fail with
// a server-side error. Attempts are separated by a fixed delay; rate limit
// responses (403/429) are returned to the caller as-is.
type RetryTransport struct {
	Base     http.RoundTripper
	Logger   *slog.Logger
	Attempts uint
	Delay    time.Duration
}

// RoundTrip implements the http.RoundTripper interface with retry logic.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := t.Logger
	if log == nil {
		log = slog.Default()
	}
	attempts := t.Attempts
	if attempts == 0 {
		attempts = retryAttempts
	}
	delay := t.Delay
	if delay == 0 {
		delay = retryDelay
	}

	var bodyBytes []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		bodyBytes, err = io.ReadAll(io.LimitReader(req.Body, maxRequestSize))
		if err != nil {
			return nil, err
		}
		if closeErr := req.Body.Close(); closeErr != nil {
			log.DebugContext(req.Context(), "failed to close request body", "error", closeErr, "url", req.URL.String())
		}
	}

	var resp *http.Response
	var lastErr error

	err := retry.Do(
		func() error { //nolint:contextcheck // Context is accessed via closure from req.Context()
			if bodyBytes != nil {
				req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			}

			var err error
			resp, err = base.RoundTrip(req) //nolint:bodyclose // Response body is handled by caller in successful cases
			if err != nil {
				lastErr = err
				return err
			}

			if resp.StatusCode < http.StatusInternalServerError {
				return nil
			}

			// Drain and buffer the body so the final failed response stays readable.
			buf, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			if readErr != nil {
				buf = nil
			}
			if closeErr := resp.Body.Close(); closeErr != nil {
				log.DebugContext(req.Context(), "failed to close response body for retry", "error", closeErr)
			}
			resp.Body = io.NopCloser(bytes.NewReader(buf))
			log.InfoContext(req.Context(), "HTTP request will be retried",
				"status", resp.StatusCode,
				"url", req.URL.String())
			lastErr = &retryableError{StatusCode: resp.StatusCode}
			return lastErr
		},
		retry.Context(req.Context()),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool {
			var retryErr *retryableError
			return errors.As(err, &retryErr)
		}),
	)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var retryErr *retryableError
		if errors.As(lastErr, &retryErr) && resp != nil {
			// Out of attempts: hand back the last server response so the caller
			// can report the status and body.
			return resp, nil
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}

	return resp, nil
}

// retryableError indicates a response that should be retried.
type retryableError struct {
	StatusCode int
}

func (e *retryableError) Error() string {
	return http.StatusText(e.StatusCode)
}
