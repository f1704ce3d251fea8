package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/neuropassword/npass/internal/logging"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   ErrorType
	}{
		{"ok", 200, nil, ErrorTypeSuccess},
		{"created", 201, nil, ErrorTypeSuccess},
		{"no content", 204, nil, ErrorTypeSuccess},
		{"unauthorized", 401, nil, ErrorTypeAuth},
		{"forbidden", 403, nil, ErrorTypeFatal},
		{"not found", 404, nil, ErrorTypeFatal},
		{"bad request", 400, nil, ErrorTypeFatal},
		{"throttled", 429, nil, ErrorTypeRetryable},
		{"server error", 500, nil, ErrorTypeRetryable},
		{"bad gateway", 502, nil, ErrorTypeRetryable},
		{"not implemented", 501, nil, ErrorTypeFatal},
		{"canceled", 0, fmt.Errorf("request: %w", context.Canceled), ErrorTypeFatal},
		{"url error", 0, &url.Error{Op: "Get", URL: "http://x", Err: errors.New("dial tcp: connection refused")}, ErrorTypeNetwork},
		{"reset string", 0, errors.New("read: connection reset by peer"), ErrorTypeNetwork},
		{"unknown error", 0, errors.New("something odd"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *nethttp.Response
			if tt.err == nil {
				resp = &nethttp.Response{StatusCode: tt.status}
			}
			got := ClassifyResponse(resp, tt.err)
			if got != tt.want {
				t.Errorf("ClassifyResponse() = %s, want %s", ErrorTypeName(got), ErrorTypeName(tt.want))
			}
		})
	}
}

func TestErrorTypeName(t *testing.T) {
	if ErrorTypeName(ErrorTypeAuth) != "Auth" {
		t.Errorf("ErrorTypeName(ErrorTypeAuth) = %s", ErrorTypeName(ErrorTypeAuth))
	}
	if ErrorTypeName(ErrorType(99)) != "Unknown" {
		t.Errorf("ErrorTypeName(99) = %s", ErrorTypeName(ErrorType(99)))
	}
}

func TestCheckRetryStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry, err := CheckRetry(ctx, &nethttp.Response{StatusCode: 503}, nil)
	if retry {
		t.Error("should not retry after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewRetryingClient(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		status     int
		wantCalls  int32
	}{
		{"zero retries makes one attempt", 0, 503, 1},
		{"retries server errors", 2, 503, 3},
		{"never retries 401", 3, 401, 1},
		{"never retries 404", 3, 404, 1},
		{"clamped to limit", 100, 200, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewRetryingClient(srv.Client(), tt.maxRetries, logging.NewNopLogger())
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("server saw %d calls, want %d", got, tt.wantCalls)
			}
		})
	}
}
