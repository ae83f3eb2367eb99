package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"guidetrack/internal/testutil"
	"guidetrack/pkg/cloudevent"
)

func testEvent(id string) *cloudevent.CloudEvent {
	return cloudevent.New("guidetrack.job.completed", "guidetrack", "job-1", id, map[string]any{
		"localId": "job-1",
		"phase":   "completed",
	})
}

func newTestNotifier(t *testing.T, cfg Config) *Notifier {
	t.Helper()
	n := New(cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = n.Close(ctx)
	})
	return n
}

func TestNotifierDeliversSignedEvent(t *testing.T) {
	t.Parallel()

	const signingKey = "test-signing-key"

	type received struct {
		body      []byte
		signature string
		ceType    string
		content   string
	}
	got := make(chan received, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{
			body:      body,
			signature: r.Header.Get("X-Signature-256"),
			ceType:    r.Header.Get("Ce-Type"),
			content:   r.Header.Get("Content-Type"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestNotifier(t, Config{URL: server.URL, SigningKey: signingKey})

	if err := n.Publish(testEvent("evt-1")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	var rec received
	select {
	case rec = <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("event was never delivered")
	}

	if rec.ceType != "guidetrack.job.completed" {
		t.Errorf("Ce-Type = %q, want guidetrack.job.completed", rec.ceType)
	}
	if rec.content != "application/cloudevents+json" {
		t.Errorf("Content-Type = %q", rec.content)
	}

	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write(rec.body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if rec.signature != want {
		t.Errorf("signature mismatch: got %q, want %q", rec.signature, want)
	}

	var event cloudevent.CloudEvent
	if err := json.Unmarshal(rec.body, &event); err != nil {
		t.Fatalf("body is not a CloudEvent: %v", err)
	}
	if event.ID != "evt-1" || event.Subject != "job-1" {
		t.Errorf("event = %+v, want id evt-1 subject job-1", event)
	}

	testutil.MustWaitFor(t, func() bool { return n.Stats().Delivered == 1 })
}

func TestNotifierRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestNotifier(t, Config{URL: server.URL, MaxRetries: 3})

	if err := n.Publish(testEvent("evt-retry")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	testutil.MustWaitFor(t, func() bool { return n.Stats().Delivered == 1 })
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3 (two failures then success)", got)
	}
}

func TestNotifierDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := newTestNotifier(t, Config{URL: server.URL, MaxRetries: 3})

	if err := n.Publish(testEvent("evt-400")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	testutil.MustWaitFor(t, func() bool { return n.Stats().Failed == 1 })
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (4xx is not retried)", got)
	}
}

func TestNotifierDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	n := newTestNotifier(t, Config{URL: server.URL, BufferSize: 1})

	// First event occupies the worker; wait until it leaves the queue.
	if err := n.Publish(testEvent("evt-1")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	testutil.MustWaitFor(t, func() bool { return n.Stats().QueueDepth == 0 })

	// Second fills the buffer, third must drop.
	if err := n.Publish(testEvent("evt-2")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := n.Publish(testEvent("evt-3")); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("Publish() error = %v, want ErrBufferFull", err)
	}

	stats := n.Stats()
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}
	if stats.Queued != 2 {
		t.Errorf("Queued = %d, want 2", stats.Queued)
	}
}

func TestNotifierDrainsQueueOnClose(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int64
	gate := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-gate
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(Config{URL: server.URL, BufferSize: 10}, nil)

	const total = 5
	for i := range total {
		if err := n.Publish(testEvent("evt-" + string(rune('a'+i)))); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := n.Stats().Delivered; got != total {
		t.Errorf("Delivered = %d, want %d (queued events drained on close)", got, total)
	}
}

func TestNotifierRejectsPublishAfterClose(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(Config{URL: server.URL}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := n.Publish(testEvent("late")); err == nil {
		t.Error("Publish() after Close() succeeded, want error")
	}
	// Closing twice is harmless.
	if err := n.Close(ctx); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{URL: "http://example.com/hook"}.withDefaults()

	if cfg.BufferSize != defaultBufferSize {
		t.Errorf("BufferSize = %d, want %d", cfg.BufferSize, defaultBufferSize)
	}
	if cfg.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, defaultMaxRetries)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, defaultHTTPTimeout)
	}
	if cfg.DeliveryTimeout != defaultDeliveryTimeout {
		t.Errorf("DeliveryTimeout = %v, want %v", cfg.DeliveryTimeout, defaultDeliveryTimeout)
	}

	custom := Config{URL: "http://example.com/hook", BufferSize: 5, MaxRetries: 1}.withDefaults()
	if custom.BufferSize != 5 || custom.MaxRetries != 1 {
		t.Errorf("withDefaults overwrote explicit values: %+v", custom)
	}
}
