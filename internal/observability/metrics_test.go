package observability

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	ctx := context.Background()
	m, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	if m == nil || handler == nil {
		t.Fatal("expected metrics and handler")
	}

	// Record across all instruments; none should panic.
	m.RecordHTTPRequest(ctx, "GET", "/v1/guides", 200, 0.01)
	m.RecordHTTPRequest(ctx, "POST", "/v1/guides", 400, 0.02)
	m.RecordSubmission(ctx, true)
	m.RecordSubmission(ctx, false)
	m.RecordPoll(ctx, true, 0.05)
	m.RecordPoll(ctx, false, 0.05)
	m.RecordResultFetch(ctx, true)
	m.RecordJobTerminal(ctx, true, 12.5)
	m.RecordNotifierDelivered(ctx, 0.1)
	m.RecordNotifierFailed(ctx)
	m.RecordNotifierDropped(ctx)
	m.RecordNotifierQueueSize(ctx, 3)

	// The Prometheus handler should expose the recorded series.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{"submissions_total", "polls_total", "jobs_tracked", "http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metric %q in exposition output", want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want string
	}{
		{"/v1/guides", "/v1/guides"},
		{"/v1/guides/abc123", "/v1/guides/{localId}"},
		{"/v1/guides/abc123/refresh", "/v1/guides/{localId}/refresh"},
		{"/livez", "/livez"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
