package service

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/events"
)

// checkoutService converts a user's cart into an immutable order.
//
// The whole conversion runs inside a single store transaction that holds
// the user's cart lock: read lines, resolve current prices, decrement
// stock, insert the order, clear the cart. Concurrent checkouts for the
// same user serialize on the lock, so the second caller observes the
// emptied cart and fails with ErrEmptyCart instead of producing a second
// order from the same snapshot. Any error rolls the transaction back and
// leaves both stores untouched.
type checkoutService struct {
	store    domain.CheckoutStore
	events   events.Publisher
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(store domain.CheckoutStore, publisher events.Publisher, logger *slog.Logger) domain.CheckoutService {
	return &checkoutService{
		store:    store,
		events:   publisher,
		validate: newValidator(),
		logger:   logger,
	}
}

// Checkout implements domain.CheckoutService.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, addr domain.Address, currency string) (*domain.Order, error) {
	const op = "checkout"

	if currency == "" {
		currency = domain.DefaultCurrency
	}

	// Address problems are client errors; reject before touching the
	// stores so failed calls leave no trace.
	if err := s.validate.Struct(addr); err != nil {
		return nil, validationError(op, err)
	}

	var order *domain.Order
	err := s.store.InUserCartTx(ctx, userID, func(ctx context.Context, tx domain.CheckoutTx) error {
		lines, err := tx.CartLines(ctx)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uuid.UUID, len(lines))
		for i, line := range lines {
			ids[i] = line.ProductID
		}

		products, err := tx.Products(ctx, ids)
		if err != nil {
			return err
		}

		// Snapshot title and price per line, freezing them into the
		// order. A missing product is a hard stop: silently dropping the
		// line would change the total behind the client's back.
		orderLines := make([]domain.OrderLine, len(lines))
		var total domain.Paise
		for i, line := range lines {
			p, ok := products[line.ProductID]
			if !ok {
				return productNotFoundErr(op, line.ProductID)
			}
			if line.Quantity > p.Stock {
				return insufficientStockErr(op, p.ID, line.Quantity, p.Stock)
			}

			orderLines[i] = domain.OrderLine{
				ProductID: p.ID,
				Title:     p.Title,
				Price:     p.Price,
				Quantity:  line.Quantity,
			}
			total += p.Price * domain.Paise(line.Quantity)
		}

		for _, line := range lines {
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		o := &domain.Order{
			UserID:        userID,
			Lines:         orderLines,
			Address:       addr,
			Total:         total,
			Currency:      currency,
			PaymentMethod: domain.PaymentMethodCOD,
			PaymentStatus: domain.PaymentStatusPending,
			Status:        domain.OrderStatusProcessing,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		if err := tx.ClearCart(ctx); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The order is committed; event delivery is best effort.
	if err := s.events.OrderCreated(ctx, order); err != nil {
		s.logger.Warn("failed to publish order created event",
			"order_id", order.ID, "error", err)
	}

	s.logger.Info("checkout completed",
		"order_id", order.ID,
		"user_id", userID,
		"lines", len(order.Lines),
		"total", order.Total.String(),
		"currency", order.Currency,
	)

	return order, nil
}
