package cloudevent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSend(t *testing.T) {
	t.Parallel()

	var gotHeaders http.Header
	var gotEvent CloudEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotEvent); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := New("tracker.job.completed", "guidetrack", "job-1", "evt-1", map[string]any{"remoteId": "r1"})
	sender := NewSender(5 * time.Second)

	if err := sender.Send(context.Background(), server.URL, event, ""); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotHeaders.Get("Ce-Type") != "tracker.job.completed" {
		t.Errorf("expected Ce-Type header, got %q", gotHeaders.Get("Ce-Type"))
	}
	if gotHeaders.Get("Content-Type") != "application/cloudevents+json" {
		t.Errorf("unexpected content type %q", gotHeaders.Get("Content-Type"))
	}
	if gotHeaders.Get("X-Signature-256") != "" {
		t.Error("expected no signature without a signing key")
	}
	if gotEvent.Subject != "job-1" {
		t.Errorf("expected subject job-1, got %q", gotEvent.Subject)
	}
}

func TestSend_Signed(t *testing.T) {
	t.Parallel()

	var signature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Signature-256")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := New("tracker.job.failed", "guidetrack", "job-2", "evt-2", nil)
	sender := NewSender(5 * time.Second)

	if err := sender.Send(context.Background(), server.URL, event, "secret"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(signature) == 0 || signature[:7] != "sha256=" {
		t.Errorf("expected sha256= signature, got %q", signature)
	}
}

func TestSend_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	event := New("tracker.job.submitted", "guidetrack", "job-3", "evt-3", nil)
	sender := NewSender(5 * time.Second)

	err := sender.Send(context.Background(), server.URL, event, "")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.StatusCode)
	}
	if IsClientError(err) {
		t.Error("500 should not classify as client error")
	}
}

func TestIsClientError(t *testing.T) {
	t.Parallel()

	if !IsClientError(&HTTPError{StatusCode: 404}) {
		t.Error("404 should be a client error")
	}
	if IsClientError(&HTTPError{StatusCode: 503}) {
		t.Error("503 should not be a client error")
	}
	if IsClientError(errors.New("other")) {
		t.Error("non-HTTP errors should not classify as client errors")
	}
}
