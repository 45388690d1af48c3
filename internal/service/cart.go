package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// cartService implements domain.CartService on top of the cart and
// catalog stores.
type cartService struct {
	carts   domain.CartStore
	catalog domain.CatalogStore
}

// NewCartService creates a new CartService instance.
func NewCartService(carts domain.CartStore, catalog domain.CatalogStore) domain.CartService {
	return &cartService{
		carts:   carts,
		catalog: catalog,
	}
}

// GetCart returns the user's cart resolved against the live catalog.
// A user with no persisted cart gets an empty view, not an error.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

// AddItem adds a product to the cart or increments its line quantity.
// The product must exist at add time; checkout re-verifies existence
// against the then-current catalog.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int32) (*domain.CartView, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, productNotFoundErr("cart.add", productID)
		}
		return nil, err
	}

	cart, err := s.carts.AddLine(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

// RemoveItem removes a product's line from the cart. Removing a product
// that is not in the cart is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.CartView, error) {
	cart, err := s.carts.RemoveLine(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, cart)
}

// resolve joins cart lines with current catalog records. Lines whose
// product has been deleted are kept and flagged so the client can show
// them; their price contribution is zero until the line is removed.
func (s *cartService) resolve(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	view := &domain.CartView{
		Cart:  *cart,
		Items: make([]domain.CartViewItem, 0, len(cart.Lines)),
	}

	for _, line := range cart.Lines {
		item := domain.CartViewItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}

		p, err := s.catalog.GetByID(ctx, line.ProductID)
		switch {
		case err == nil:
			item.Title = p.Title
			item.UnitPrice = p.Price
			item.LineTotal = p.Price * domain.Paise(line.Quantity)
			view.Subtotal += item.LineTotal
		case errors.Is(err, ErrProductNotFound):
			item.Missing = true
		default:
			return nil, err
		}

		view.Items = append(view.Items, item)
	}

	return view, nil
}
