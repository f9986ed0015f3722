package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsWrappedAPIErrors(t *testing.T) {
	inner := NotFound("track_not_found", errors.New("track not found"))
	wrapped := fmt.Errorf("load: %w", inner)

	got := From(wrapped)
	if got != inner {
		t.Fatalf("expected wrapped api error to be returned as-is, got %#v", got)
	}
	if got.Status != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, got.Status)
	}
}

func TestFromDefaultsToInternal(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal_error" {
		t.Fatalf("unexpected mapping: %#v", got)
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}

func TestUpstreamStatus(t *testing.T) {
	if got := Upstream("hub", 0, nil).Status; got != http.StatusBadGateway {
		t.Fatalf("unknown upstream status should be 502, got %d", got)
	}
	if got := Upstream("hub", http.StatusServiceUnavailable, nil).Status; got != http.StatusServiceUnavailable {
		t.Fatalf("5xx should be forwarded, got %d", got)
	}
	if !Upstream("hub", http.StatusNotFound, nil).Upstream {
		t.Fatalf("Upstream should mark the error as upstream")
	}
	if BadRequest("x", nil).Upstream {
		t.Fatalf("BadRequest should not be marked upstream")
	}
}
