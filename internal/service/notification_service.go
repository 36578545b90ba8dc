package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/errand-service/internal/events"
)

// Publisher forwards serialized events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, eventType string, body []byte) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service. publisher may be nil, in
// which case events are only logged.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.Int64("customer_id", event.CustomerID))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("RequestCreated", zap.Int64("customer_id", event.CustomerID), zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.publisher == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := n.publisher.Publish(ctx, string(event.Type), body); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	n.logger.Debug("event published", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	return nil
}
