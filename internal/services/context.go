package services

import "context"

type contextKey string

const (
	taskIDKey    contextKey = "task_id"
	screenKey    contextKey = "screen"
	requestIDKey contextKey = "request_id"
)

// WithTaskID annotates context with the generation task identifier.
func WithTaskID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFromContext extracts the generation task identifier if present.
func TaskIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithScreen annotates context with the presentation screen name.
func WithScreen(ctx context.Context, screen string) context.Context {
	if screen == "" {
		return ctx
	}
	return context.WithValue(ctx, screenKey, screen)
}

// ScreenFromContext returns the screen name if present.
func ScreenFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(screenKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
