package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// maxAdminListLimit caps administrative order listings.
const maxAdminListLimit = 200

// orderService implements domain.OrderService. Orders are immutable
// snapshots; the only mutation this service performs is the
// administrative status transition.
type orderService struct {
	orders domain.OrderStore
	logger *slog.Logger
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(orders domain.OrderStore, logger *slog.Logger) domain.OrderService {
	return &orderService{
		orders: orders,
		logger: logger,
	}
}

// ListAllOrders returns up to limit orders across all users, newest
// first. A zero or out-of-range limit falls back to the cap.
func (s *orderService) ListAllOrders(ctx context.Context, limit int32) ([]domain.Order, error) {
	if limit <= 0 || limit > maxAdminListLimit {
		limit = maxAdminListLimit
	}
	return s.orders.ListAll(ctx, limit)
}

// ListUserOrders returns all of a user's orders, newest first.
func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetOrder returns a single order by id.
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// UpdateOrderStatus transitions an order to one of the defined statuses.
// Unknown values are rejected before the store is touched, so a failed
// call leaves the previous status intact.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	const op = "order.update_status"

	if !domain.ValidOrderStatus(status) {
		return nil, invalidStatusErr(op, status)
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated", "order_id", id, "status", status)
	return order, nil
}
