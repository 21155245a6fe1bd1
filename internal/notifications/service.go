package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/better-hash/ai-video-generator/internal/config"
)

const userAgent = "vidgen/0.1.0"

// Event names a notification kind.
type Event string

const (
	EventVideoCompleted Event = "video_completed"
	EventVideoFailed    Event = "video_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Known keys: taskID, title, videoURL, error.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no topic is configured a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventVideoCompleted: cfg.Notifications.Completed,
			EventVideoFailed:    cfg.Notifications.Failed,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	subject := payload.text("title")
	if subject == "" {
		subject = payload.text("taskID")
	}
	if subject == "" {
		subject = "video"
	}
	switch event {
	case EventVideoCompleted:
		body := fmt.Sprintf("🎬 Video ready: %s", subject)
		if url := payload.text("videoURL"); url != "" {
			body = fmt.Sprintf("%s\n%s", body, url)
		}
		return message{
			title:    "vidgen - Video Ready",
			body:     body,
			tags:     []string{"vidgen", "video", "completed"},
			priority: "high",
		}, true
	case EventVideoFailed:
		reason := payload.text("error")
		if reason == "" {
			reason = "unknown error"
		}
		return message{
			title:    "vidgen - Video Failed",
			body:     fmt.Sprintf("❌ Video failed: %s: %s", subject, reason),
			tags:     []string{"vidgen", "video", "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "vidgen - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"vidgen", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
