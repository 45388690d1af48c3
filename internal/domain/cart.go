package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cart domain errors.
var (
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)

// CartLine is one (product, quantity) entry of a cart. Adding the same
// product twice increments the existing line instead of appending.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int32
}

// Cart is the mutable per-user collection of desired purchase lines.
// There is at most one cart per user; it is created lazily on first add
// and emptied (never deleted) by a successful checkout.
type Cart struct {
	UserID    uuid.UUID
	Lines     []CartLine
	UpdatedAt time.Time
}

// CartStore persists carts keyed by user.
type CartStore interface {
	// Get returns the user's cart, or an empty cart if none has been
	// persisted yet. Never fails with not-found.
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// AddLine appends a line for productID or increments an existing
	// line's quantity by qty. The cart row is created if absent.
	AddLine(ctx context.Context, userID, productID uuid.UUID, qty int32) (*Cart, error)

	// RemoveLine deletes the line for productID. Removing an absent line
	// is a no-op, not an error.
	RemoveLine(ctx context.Context, userID, productID uuid.UUID) (*Cart, error)
}

// CartView is a cart resolved against the live catalog for display:
// each line carries current product data and a line subtotal.
type CartView struct {
	Cart     Cart
	Items    []CartViewItem
	Subtotal Paise
}

// CartViewItem is a resolved cart line. Missing is set when the
// referenced product has been deleted since the line was added.
type CartViewItem struct {
	ProductID uuid.UUID
	Title     string
	UnitPrice Paise
	Quantity  int32
	LineTotal Paise
	Missing   bool
}

// CartService provides business logic for shopping cart operations.
type CartService interface {
	// GetCart returns the user's cart resolved against the catalog.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)

	// AddItem adds a product to the cart or increments its quantity.
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int32) (*CartView, error)

	// RemoveItem removes a product from the cart (no-op if absent).
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
}
