package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/better-hash/ai-video-generator/internal/services"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := services.Wrap(services.ErrTransport, "gateway", "parse script", "request failed", cause)

	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "gateway: parse script: request failed") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected default transport marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "client failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestKindAndRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      error
		retryable bool
	}{
		{name: "validation", err: services.Wrap(services.ErrValidation, "c", "op", "empty", nil), kind: services.ErrValidation},
		{name: "server", err: services.Wrap(services.ErrServer, "c", "op", "http 500", nil), kind: services.ErrServer, retryable: true},
		{name: "format", err: services.Wrap(services.ErrFormat, "c", "op", "bad json", nil), kind: services.ErrFormat, retryable: true},
		{name: "unclassified", err: errors.New("boom"), kind: nil, retryable: true},
		{name: "nil", err: nil, kind: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.kind {
				t.Fatalf("Kind() = %v, want %v", got, tt.kind)
			}
			if got := services.IsRetryable(tt.err); got != tt.retryable {
				t.Fatalf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}
