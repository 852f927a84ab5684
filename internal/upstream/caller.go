package upstream

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

// Response is the outcome of an upstream call. Status is always set; transport
// failures are reported as 503 with a detail payload.
type Response struct {
	Status  int
	Payload map[string]any
}

// OK reports whether the upstream answered with a non-error status.
func (r Response) OK() bool {
	return r.Status < http.StatusBadRequest
}

// Detail returns the "detail" field of the payload, if any.
func (r Response) Detail() any {
	return r.Payload["detail"]
}

// Caller posts JSON to upstream services, retrying transport failures with exponential backoff.
type Caller struct {
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
}

// NewCaller creates a Caller. timeout bounds each attempt separately.
func NewCaller(timeout time.Duration, maxRetries int, baseDelay time.Duration) *Caller {
	return &Caller{
		httpClient: &http.Client{},
		timeout:    timeout,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Post sends body as JSON to url. Any HTTP response is returned as is; only
// timeouts and network errors are retried.
func (c *Caller) Post(ctx context.Context, url string, body any, headers map[string]string) Response {
	data, err := json.Marshal(body)
	if err != nil {
		return failure(http.StatusInternalServerError, fmt.Sprintf("encoding upstream request: %v", err))
	}

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		resp, err := c.attempt(ctx, url, data, headers)
		if err == nil {
			return resp
		}
		lastErr = err

		if attempt < c.maxRetries && ctx.Err() == nil {
			delay := c.baseDelay * time.Duration(1<<uint(attempt))
			slog.WarnContext(ctx, "upstream call failed, retrying",
				"url", url, "attempt", attempt+1, "max_attempts", c.maxRetries+1, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
				continue
			}
		}
		break
	}

	if lastErr == nil {
		return failure(http.StatusServiceUnavailable, "upstream communication failure: exhausted retries")
	}
	slog.WarnContext(ctx, "upstream call failed", "url", url, "error", lastErr)
	return failure(http.StatusServiceUnavailable, "upstream communication failure: "+errorClass(lastErr))
}

func (c *Caller) attempt(ctx context.Context, url string, data []byte, headers map[string]string) (Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}
	return Response{Status: resp.StatusCode, Payload: NormalizePayload(body)}, nil
}

// NormalizePayload coerces a response body into a map. Non-object JSON and
// non-JSON text are wrapped under "detail".
func NormalizePayload(body []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return map[string]any{"detail": string(body)}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"detail": v}
}

func errorClass(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "TimeoutError"
	}
	if errors.Is(err, context.Canceled) {
		return "Canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "TimeoutError"
	}
	return "NetworkError"
}

func failure(status int, detail string) Response {
	return Response{Status: status, Payload: map[string]any{"detail": detail}}
}
