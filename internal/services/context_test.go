package services_test

import (
	"context"
	"testing"

	"github.com/better-hash/ai-video-generator/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTaskID(ctx, "task-42")
	ctx = services.WithScreen(ctx, "video")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TaskIDFromContext(ctx); !ok || id != "task-42" {
		t.Fatalf("unexpected task id: %v %v", id, ok)
	}
	if screen, ok := services.ScreenFromContext(ctx); !ok || screen != "video" {
		t.Fatalf("unexpected screen: %v %v", screen, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithScreen(ctx, "")
	ctx = services.WithTaskID(ctx, "")
	if _, ok := services.ScreenFromContext(ctx); ok {
		t.Fatal("expected no screen value")
	}
	if _, ok := services.TaskIDFromContext(ctx); ok {
		t.Fatal("expected no task id value")
	}
}
