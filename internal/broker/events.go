package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"qrtag-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPaid publishes OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCommissionRecorded publishes CommissionRecorded event
func (ep *EventPublisher) PublishCommissionRecorded(ctx context.Context, event *models.CommissionRecordedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTagCreated publishes TagCreated event
func (ep *EventPublisher) PublishTagCreated(ctx context.Context, event *models.TagCreatedEvent) error {
	key := fmt.Sprintf("tag-%s", event.CustomID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onOrderPaid          func(context.Context, *models.OrderPaidEvent) error
	onCommissionRecorded func(context.Context, *models.CommissionRecordedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderPaid registers a handler for OrderPaid events
func (eh *EventHandler) OnOrderPaid(handler func(context.Context, *models.OrderPaidEvent) error) {
	eh.onOrderPaid = handler
}

// OnCommissionRecorded registers a handler for CommissionRecorded events
func (eh *EventHandler) OnCommissionRecorded(handler func(context.Context, *models.CommissionRecordedEvent) error) {
	eh.onCommissionRecorded = handler
}

// HandleMessage routes messages to appropriate handlers. Event types without a
// registered handler are skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderPaid:
		if eh.onOrderPaid != nil {
			var event models.OrderPaidEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPaid event: %w", err)
			}
			return eh.onOrderPaid(ctx, &event)
		}

	case models.EventTypeCommissionRecorded:
		if eh.onCommissionRecorded != nil {
			var event models.CommissionRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CommissionRecorded event: %w", err)
			}
			return eh.onCommissionRecorded(ctx, &event)
		}
	}

	return nil
}
