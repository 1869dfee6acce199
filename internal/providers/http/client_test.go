package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalbox/swa/internal/infrastructure/resilience"
	"github.com/legalbox/swa/internal/infrastructure/tracing"
)

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestPostJSON(t *testing.T) {
	var gotBody map[string]interface{}
	var gotRequestID, gotContentType string

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodPost, r.Method)
		assert.Equal(t, "/api/news", r.URL.Path)
		gotRequestID = r.Header.Get(RequestIDHeader)
		gotContentType = r.Header.Get("Content-Type")

		data, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","items":[1,2]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	resp, err := client.Post(context.Background(), "/api/news", map[string]interface{}{"page": 2})

	require.NoError(t, err)
	assert.Equal(t, "success", resp["status"])
	assert.Len(t, resp["items"], 2)
	assert.Equal(t, float64(2), gotBody["page"])
	assert.NotEmpty(t, gotRequestID)
	assert.Contains(t, gotContentType, "application/json")
}

func TestPostPropagatesTrace(t *testing.T) {
	var gotTrace string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotTrace = r.Header.Get(tracing.TraceHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx := tracing.WithTrace(context.Background(), "trc_test", "")
	_, err := NewClient(testConfig(server.URL), nil).Post(ctx, "/", nil)

	require.NoError(t, err)
	assert.Equal(t, "trc_test", gotTrace)
}

func TestPostDecodesBodies(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        map[string]interface{}
	}{
		{
			name: "json without header",
			body: `{"status":"success"}`,
			want: map[string]interface{}{"status": "success"},
		},
		{
			name:        "json array",
			contentType: "application/json",
			body:        `[1]`,
			want:        map[string]interface{}{"status": "success", "data": []interface{}{float64(1)}},
		},
		{
			name:        "plain text",
			contentType: "text/plain",
			body:        "hello",
			want: map[string]interface{}{
				"status":      "success",
				"contentType": "text/plain; charset=utf-8",
				"data":        "hello",
			},
		},
		{
			name: "empty",
			want: map[string]interface{}{"status": "success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp, err := NewClient(testConfig(server.URL), nil).Post(context.Background(), "/", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestPostErrorStatus(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL), nil).Post(context.Background(), "/", nil)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestPostRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond

	resp, err := NewClient(cfg, nil).Post(context.Background(), "/", map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, 3, attempts)
}

func TestPostOpensBreaker(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	for i := 0; i < 5; i++ {
		_, err := client.Post(context.Background(), "/", nil)
		require.ErrorIs(t, err, ErrStatus)
	}

	assert.Equal(t, resilience.StateOpen, client.BreakerState())
	_, err := client.Post(context.Background(), "/", nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestPostCancelled(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Post(ctx, "/", nil)
	assert.Error(t, err)
	assert.Equal(t, resilience.StateClosed, client.BreakerState())
}
