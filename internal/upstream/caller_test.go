package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slowOnce(attempts *atomic.Int32, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(delay):
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}
}

func TestPostRetriesAfterTimeout(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(slowOnce(&attempts, time.Second))
	defer server.Close()

	caller := NewCaller(50*time.Millisecond, 1, 10*time.Millisecond)
	resp := caller.Post(context.Background(), server.URL, map[string]any{"a": 1}, nil)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, true, resp.Payload["ok"])
	assert.Equal(t, int32(2), attempts.Load())
}

func TestPostTimeoutWithoutRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(slowOnce(&attempts, time.Second))
	defer server.Close()

	caller := NewCaller(50*time.Millisecond, 0, 10*time.Millisecond)
	resp := caller.Post(context.Background(), server.URL, map[string]any{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "upstream communication failure: TimeoutError", resp.Detail())
	assert.Equal(t, int32(1), attempts.Load())
}

func TestPostNegativeRetriesMakesNoAttempt(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}))
	defer server.Close()

	caller := NewCaller(time.Second, -1, time.Millisecond)
	resp := caller.Post(context.Background(), server.URL, map[string]any{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "upstream communication failure: exhausted retries", resp.Detail())
	assert.Equal(t, int32(0), attempts.Load())
}

func TestPostNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	caller := NewCaller(time.Second, 1, time.Millisecond)
	resp := caller.Post(context.Background(), url, map[string]any{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "upstream communication failure: NetworkError", resp.Detail())
}

func TestPostReturnsErrorStatusWithoutRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"portfolio P9 not found"}`))
	}))
	defer server.Close()

	caller := NewCaller(time.Second, 3, time.Millisecond)
	resp := caller.Post(context.Background(), server.URL, map[string]any{}, nil)

	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.OK())
	assert.Equal(t, "portfolio P9 not found", resp.Detail())
	assert.Equal(t, int32(1), attempts.Load())
}

func TestPostSendsBodyAndHeaders(t *testing.T) {
	var gotBody map[string]any
	var gotHeader, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Correlation-Id")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	caller := NewCaller(time.Second, 0, time.Millisecond)
	resp := caller.Post(context.Background(), server.URL, map[string]any{"asOfDate": "2026-02-24"},
		map[string]string{"X-Correlation-Id": "corr_1"})

	require.True(t, resp.OK())
	assert.Equal(t, "corr_1", gotHeader)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "2026-02-24", gotBody["asOfDate"])
}

func TestPostStopsWhenContextCancelled(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	caller := NewCaller(time.Second, 5, time.Second)
	resp := caller.Post(ctx, server.URL, map[string]any{}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestNormalizePayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]any
	}{
		{"object", `{"a":"b"}`, map[string]any{"a": "b"}},
		{"list", `[1,2]`, map[string]any{"detail": []any{json.Number("1"), json.Number("2")}}},
		{"text", `gateway down`, map[string]any{"detail": "gateway down"}},
		{"string", `"oops"`, map[string]any{"detail": "oops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePayload([]byte(tt.body)))
		})
	}
}

func TestNormalizePayloadKeepsExactNumbers(t *testing.T) {
	p := NormalizePayload([]byte(`{"v":0.1000000000000000055511}`))
	assert.Equal(t, json.Number("0.1000000000000000055511"), p["v"])
}
