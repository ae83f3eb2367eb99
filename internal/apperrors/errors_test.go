package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("websiteUrl", "website URL is required")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}
	if err.Error() != "website URL is required" {
		t.Errorf("expected message 'website URL is required', got %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "websiteUrl" {
		t.Errorf("expected field 'websiteUrl', got %q", appErr.Field)
	}
}

func TestCreation(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("connection refused")
	err := Creation("remote.createGuide", cause)

	if !errors.Is(err, ErrCreation) {
		t.Error("expected error to match ErrCreation")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Op != "remote.createGuide" {
		t.Errorf("expected op 'remote.createGuide', got %q", appErr.Op)
	}
	if appErr.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestPollAndResultFetch(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("timeout")

	pollErr := Poll("remote.guideStatus", cause)
	if !errors.Is(pollErr, ErrPoll) {
		t.Error("expected error to match ErrPoll")
	}
	if errors.Is(pollErr, ErrResultFetch) {
		t.Error("poll error should not match ErrResultFetch")
	}

	fetchErr := ResultFetch("remote.guideResults", cause)
	if !errors.Is(fetchErr, ErrResultFetch) {
		t.Error("expected error to match ErrResultFetch")
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := NotFound("guide", "abc123")

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to match ErrNotFound")
	}
	if err.Error() != "guide abc123 not found" {
		t.Errorf("expected message 'guide abc123 not found', got %q", err.Error())
	}
}

func TestConflict(t *testing.T) {
	t.Parallel()
	err := Conflict("guide", "abc123", "refresh already in progress")

	if !errors.Is(err, ErrConflict) {
		t.Error("expected error to match ErrConflict")
	}
	if err.Error() != "refresh already in progress" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("roleTitle", "role title is required"), http.StatusBadRequest},
		{"not found", NotFound("guide", "x"), http.StatusNotFound},
		{"conflict", Conflict("guide", "x", "busy"), http.StatusConflict},
		{"creation", Creation("remote.createGuide", fmt.Errorf("boom")), http.StatusBadGateway},
		{"poll", Poll("remote.guideStatus", fmt.Errorf("boom")), http.StatusBadGateway},
		{"result fetch", ResultFetch("remote.guideResults", fmt.Errorf("boom")), http.StatusBadGateway},
		{"internal", Internal("store.update", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
