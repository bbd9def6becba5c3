package service

import (
	"context"
	"log/slog"

	"atelier/internal/notifications"
)

// EventPublisher delivers account notifications. *notifications.Notifier
// satisfies it; a nil publisher drops events.
type EventPublisher interface {
	PublishAccount(ctx context.Context, accountID uint, event notifications.Event) error
}

// publish sends a best-effort notification. Failures are logged and never
// fail the calling operation.
func publish(ctx context.Context, p EventPublisher, accountID uint, eventType string, payload map[string]interface{}) {
	if p == nil || accountID == 0 {
		return
	}
	if err := p.PublishAccount(ctx, accountID, notifications.NewEvent(eventType, payload)); err != nil {
		slog.WarnContext(ctx, "failed to publish notification",
			"event", eventType,
			"account_id", accountID,
			"err", err,
		)
	}
}
