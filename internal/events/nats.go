package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// SubjectOrderCreated is the NATS subject for order creation events.
const SubjectOrderCreated = "smartbasket.orders.created"

// orderCreatedEvent is the wire shape of an order creation event. Line
// prices are snapshots in minor units, matching the persisted order.
type orderCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Total     int64     `json:"total_paise"`
	Currency  string    `json:"currency"`
	LineCount int       `json:"line_count"`
	CreatedAt time.Time `json:"created_at"`
}

// NATSPublisher publishes domain events to a NATS broker.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the broker at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("smartbasket"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// OrderCreated implements Publisher.
func (p *NATSPublisher) OrderCreated(_ context.Context, order *domain.Order) error {
	payload, err := json.Marshal(orderCreatedEvent{
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Total:     int64(order.Total),
		Currency:  order.Currency,
		LineCount: len(order.Lines),
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode order created event: %w", err)
	}

	if err := p.conn.Publish(SubjectOrderCreated, payload); err != nil {
		return fmt.Errorf("failed to publish order created event: %w", err)
	}
	return nil
}

// Close implements Publisher. Flushes pending messages before closing.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}
