package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"taskpilot/internal/eventbus"
)

// Dispatcher turns task events from the bus into push notifications.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
	}
}

// Start blocks until ctx is cancelled, forwarding each task event as a push
// notification.
func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.handleTaskEvent(ctx, event)
		}
	}
}

func (d *Dispatcher) handleTaskEvent(ctx context.Context, event *eventbus.Event) {
	var title string
	switch event.Type {
	case eventbus.TypeTaskCreated:
		title = "Task Created"
	case eventbus.TypeTaskUpdated:
		title = "Task Updated"
	case eventbus.TypeTaskDeleted:
		title = "Task Deleted"
	default:
		return
	}

	payload := &NotificationPayload{
		Title: title,
		Body:  fmt.Sprintf("Task '%s'", event.TaskTitle),
		Tag:   fmt.Sprintf("task-%d", event.TaskID),
	}
	if event.Type != eventbus.TypeTaskDeleted {
		payload.URL = fmt.Sprintf("/tasks/%d", event.TaskID)
	}

	d.sender.SendToAll(ctx, payload)
}
