package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"sales-backoffice/internal/core"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestPublisher_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "sales_orders")
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), core.OrderEvent{
		Type:        core.EventOrderCreated,
		OrderID:     7,
		OrderNumber: "20240305-001",
		Stock:       []core.StockLevel{{ProductID: 1, CountInStock: 15}},
		OccurredAt:  at,
	})
	require.NoError(t, err)
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, "sales_orders", sent.exchange)
	assert.Equal(t, "order.created", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, "order.created", body["type"])
	assert.Equal(t, "20240305-001", body["order_number"])
	assert.Len(t, body["stock"], 1)
}

func TestPublisher_ReturnsChannelError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisher(ch, "sales_orders")

	err := p.Publish(context.Background(), core.OrderEvent{Type: core.EventStockChanged})
	assert.EqualError(t, err, "channel closed")
}

func TestSetupConn_Broker(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set, skipping RabbitMQ integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, ch, err := SetupConn(ctx, url, "sales_orders_test", nil)
	require.NoError(t, err)
	defer conn.Close()
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "order.*", "sales_orders_test", false, nil))

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	p := NewPublisher(ch, "sales_orders_test")
	require.NoError(t, p.Publish(ctx, core.OrderEvent{Type: core.EventOrderSold, OrderID: 3, OccurredAt: time.Now().UTC()}))

	select {
	case d := <-msgs:
		assert.Equal(t, "order.sold", d.RoutingKey)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published event")
	}
}
