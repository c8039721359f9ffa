package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing mutation events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishMutation publishes a mutation event carrying its invalidation tags.
// Events for the same mutation name share a key so per-mutation ordering is
// preserved within a partition.
func (ep *EventPublisher) PublishMutation(ctx context.Context, event *models.MutationEvent) error {
	key := fmt.Sprintf("mutation-%s", event.Mutation)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQuoteRequested publishes a QuoteRequested event
func (ep *EventPublisher) PublishQuoteRequested(ctx context.Context, event *models.QuoteRequestedEvent) error {
	key := fmt.Sprintf("quote-%s", event.QuoteID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onMutation       func(context.Context, *models.MutationEvent) error
	onQuoteRequested func(context.Context, *models.QuoteRequestedEvent) error
	logger           *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.NamedLogger("broker")}
}

// OnMutation registers a handler for mutation events
func (eh *EventHandler) OnMutation(handler func(context.Context, *models.MutationEvent) error) {
	eh.onMutation = handler
}

// OnQuoteRequested registers a handler for QuoteRequested events
func (eh *EventHandler) OnQuoteRequested(handler func(context.Context, *models.QuoteRequestedEvent) error) {
	eh.onQuoteRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeCartMutated, models.EventTypeProductMutated, models.EventTypeWishlistMutated:
		if eh.onMutation != nil {
			var event models.MutationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal mutation event: %w", err)
			}
			return eh.onMutation(ctx, &event)
		}

	case models.EventTypeQuoteRequested:
		if eh.onQuoteRequested != nil {
			var event models.QuoteRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal QuoteRequested event: %w", err)
			}
			return eh.onQuoteRequested(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
