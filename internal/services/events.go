package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

type eventPublisher interface {
	Publish(ctx context.Context, event dto.Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, dto.Event) error { return nil }

// publishEvent is fire-and-forget: the write it describes has already
// succeeded, so a broker failure is logged and swallowed.
func publishEvent(ctx context.Context, pub eventPublisher, eventType, businessToken string, occurredAt time.Time, payload any) {
	if pub == nil {
		return
	}
	event := dto.Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		BusinessToken: businessToken,
		OccurredAt:    occurredAt,
		Payload:       payload,
	}
	if err := pub.Publish(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish event", "event_type", eventType, "event_id", event.ID, "error", err)
	}
}
