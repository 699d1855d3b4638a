package activity

import (
	"context"
	"fmt"
	"log/slog"

	activityDatamodel "github.com/frahmantamala/asset-inventory/internal/core/datamodel/activity"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
)

type Enqueuer interface {
	Enqueue(row *activityDatamodel.ActivityLog) bool
}

type EventHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

func NewEventHandler(queue Enqueuer, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		queue:  queue,
		logger: logger,
	}
}

func (h *EventHandler) HandleActivity(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.ActivityEvent)
	if !ok {
		h.logger.Error("invalid event type for activity handler", "event_type", event.EventType())
		return fmt.Errorf("expected ActivityEvent, got %T", event)
	}

	row, err := FromEvent(ev)
	if err != nil {
		h.logger.Error("failed to encode activity details", "error", err, "action", ev.Action)
		return err
	}

	h.queue.Enqueue(row)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeActivity, h.HandleActivity)

	h.logger.Info("activity event handlers registered",
		"handlers", []string{events.EventTypeActivity})
}
