package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EventType is the routing key of an order or stock event.
type EventType string

const (
	EventOrderCreated     EventType = "order.created"
	EventOrderUpdated     EventType = "order.updated"
	EventOrderDeleted     EventType = "order.deleted"
	EventOrderSold        EventType = "order.sold"
	EventOrderItemUpdated EventType = "order_item.updated"
	EventOrderItemDeleted EventType = "order_item.deleted"
	EventStockChanged     EventType = "stock.changed"
)

// OrderEvent announces a committed change. Stock lists the product counts after the change.
type OrderEvent struct {
	Type        EventType    `json:"type"`
	OrderID     int          `json:"order_id,omitempty"`
	OrderNumber string       `json:"order_number,omitempty"`
	ItemID      int          `json:"item_id,omitempty"`
	Stock       []StockLevel `json:"stock,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// ProductCache holds product listings that go stale whenever stock changes.
type ProductCache interface {
	InvalidateProducts(ctx context.Context) error
}

// notifier fans committed changes out to the product cache and the event bus.
// Both are optional. Failures are logged and never undo the committed change.
type notifier struct {
	cache  ProductCache
	events EventPublisher
	logger *zap.Logger
}

func (n notifier) stockChanged(ctx context.Context, products []Product) {
	if len(products) == 0 {
		return
	}
	if n.cache != nil {
		if err := n.cache.InvalidateProducts(ctx); err != nil {
			n.logger.Warn("failed to invalidate product cache", zap.Error(err))
		}
	}
	n.publish(ctx, OrderEvent{Type: EventStockChanged, Stock: stockLevels(products)})
}

func (n notifier) publish(ctx context.Context, event OrderEvent) {
	if n.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := n.events.Publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.Int("order_id", event.OrderID),
			zap.Error(err))
	}
}
