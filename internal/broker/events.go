package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events. It stamps the BaseEvent
// envelope (id, type, timestamp) so callers only fill payload fields.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishMenuRefreshed publishes a MenuRefreshed event
func (ep *EventPublisher) PublishMenuRefreshed(ctx context.Context, event *models.MenuRefreshedEvent) error {
	event.BaseEvent = stamp(models.EventTypeMenuRefreshed)
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("shop-%s", event.ShopID), event)
}

// PublishMenuInvalidated publishes a MenuInvalidated event
func (ep *EventPublisher) PublishMenuInvalidated(ctx context.Context, event *models.MenuInvalidatedEvent) error {
	event.BaseEvent = stamp(models.EventTypeMenuInvalidated)
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("shop-%s", event.ShopID), event)
}

// PublishOrderStatusChanged publishes an OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	event.BaseEvent = stamp(models.EventTypeOrderStatusChanged)
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("order-%d", event.OrderID), event)
}

func stamp(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onMenuInvalidated func(context.Context, *models.MenuInvalidatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnMenuInvalidated registers a handler for MenuInvalidated events
func (eh *EventHandler) OnMenuInvalidated(handler func(context.Context, *models.MenuInvalidatedEvent) error) {
	eh.onMenuInvalidated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeMenuInvalidated:
		if eh.onMenuInvalidated != nil {
			var event models.MenuInvalidatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal MenuInvalidated event: %w", err)
			}
			return eh.onMenuInvalidated(ctx, &event)
		}

	default:
		// Events this service publishes come back on the same topic;
		// nothing to do for them.
		log.Printf("Skipping event type: %s", baseEvent.EventType)
	}

	return nil
}
