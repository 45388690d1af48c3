package events

import (
	"context"
	"log/slog"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// Publisher emits domain events after they have been committed. Delivery
// is best effort: a failed publish is logged by the caller, never rolled
// back into the originating transaction.
type Publisher interface {
	// OrderCreated announces a freshly committed order.
	OrderCreated(ctx context.Context, order *domain.Order) error

	// Close releases the underlying connection, if any.
	Close()
}

// LogPublisher writes events to the application log. Used when no broker
// is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a Publisher backed by the application log.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// OrderCreated implements Publisher.
func (p *LogPublisher) OrderCreated(_ context.Context, order *domain.Order) error {
	p.logger.Info("event: order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.Total.String(),
		"currency", order.Currency,
	)
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() {}
