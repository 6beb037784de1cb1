package embed

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// RetryTransport retries requests that fail with a network error, 429 or a
// 5xx status, backing off 100ms, 200ms, 400ms and so on.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Logger     *slog.Logger
}

// NewRetryTransport wraps base; a nil base uses http.DefaultTransport.
func NewRetryTransport(base http.RoundTripper, maxRetries int) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{Base: base, MaxRetries: maxRetries, Logger: slog.Default()}
}

// RoundTrip sends a clone of req on every attempt; req itself is not modified.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	for i := 0; ; i++ {
		attempt := req.Clone(req.Context())
		if body != nil {
			attempt.Body = io.NopCloser(bytes.NewReader(body))
			attempt.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
		}
		resp, err := t.Base.RoundTrip(attempt)
		retryable := err != nil || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !retryable || i >= t.MaxRetries {
			return resp, err
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		wait := time.Duration(math.Pow(2, float64(i))) * 100 * time.Millisecond
		if t.Logger != nil {
			t.Logger.Warn("embedding request failed, retrying", "attempt", i+1, "wait", wait, "url", req.URL.String(), "status", status, "error", err)
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}
