package notifications

import (
	"context"
	"log/slog"

	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/poller"
)

// PollerObserver returns a poller subscriber that publishes terminal task
// events. Delivery failures are logged and never affect the poller.
func PollerObserver(ctx context.Context, svc Service, title string, logger *slog.Logger) func(poller.Event) {
	logger = logging.NewComponentLogger(logger, "notifications")
	return func(evt poller.Event) {
		if svc == nil {
			return
		}
		var kind Event
		switch evt.Type {
		case poller.EventCompleted:
			kind = EventVideoCompleted
		case poller.EventFailed:
			kind = EventVideoFailed
		default:
			return
		}
		payload := Payload{
			"taskID":   evt.Task.TaskID,
			"title":    title,
			"videoURL": evt.Task.VideoURL,
			"error":    evt.Task.Error,
		}
		if err := svc.Publish(ctx, kind, payload); err != nil {
			logging.WarnWithContext(logger, "notification delivery failed", "notification_failed",
				logging.String(logging.FieldTaskID, evt.Task.TaskID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "no push notification for this task"),
			)
		}
	}
}
