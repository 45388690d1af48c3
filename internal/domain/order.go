package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order domain errors.
var (
	ErrOrderNotFound     = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrEmptyCart         = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Insufficient stock for one or more items"}
)

// Order statuses. Transitions are performed only by an administrative
// actor, never by the owning user.
const (
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses. The sole supported payment method is cash on delivery.
const (
	PaymentMethodCOD     = "COD"
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// ValidOrderStatus reports whether s is one of the defined order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Address is a shipping destination, immutable once attached to an order.
// Validation tags feed go-playground/validator at checkout time.
type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// OrderLine is a point-in-time snapshot of a purchased product. Title and
// price are captured at checkout and never change, even if the catalog
// entry is later edited or deleted.
type OrderLine struct {
	ProductID uuid.UUID
	Title     string
	Price     Paise
	Quantity  int32
}

// Order is an immutable snapshot of a completed purchase intent. Only
// Status and PaymentStatus may change after creation. Total always equals
// the sum of line price times quantity at creation time.
type Order struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Lines         []OrderLine
	Address       Address
	Total         Paise
	Currency      string
	PaymentMethod string
	PaymentStatus string
	Status        string
	CreatedAt     time.Time
}

// OrderStore persists immutable order snapshots. Orders are append-only
// apart from administrative status updates.
type OrderStore interface {
	// ListAll returns up to limit orders across all users, newest first.
	ListAll(ctx context.Context, limit int32) ([]Order, error)

	// ListByUser returns all orders for a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)

	// GetByID returns a single order or ErrOrderNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdateStatus transitions an order's status. No other field is
	// touched. Returns ErrOrderNotFound if the order does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// OrderService provides business logic for order listing and
// administrative status transitions.
type OrderService interface {
	ListAllOrders(ctx context.Context, limit int32) ([]Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error)
}

// CheckoutTx exposes the store operations available inside a checkout
// transaction. Implementations guarantee that every method observes and
// mutates the same isolated snapshot, and that nothing becomes visible
// until the transaction commits.
type CheckoutTx interface {
	// CartLines returns the locked cart's lines in insertion order.
	CartLines(ctx context.Context) ([]CartLine, error)

	// Products resolves current product records for the given ids.
	// Missing ids are absent from the result map, not an error.
	Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)

	// DecrementStock subtracts qty from a product's stock, failing with
	// ErrInsufficientStock when fewer than qty units remain.
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int32) error

	// CreateOrder inserts the order and its lines, filling ID and
	// CreatedAt.
	CreateOrder(ctx context.Context, o *Order) error

	// ClearCart empties the locked cart's line list.
	ClearCart(ctx context.Context) error
}

// CheckoutStore runs fn inside a transaction that holds the user's cart
// lock for its whole duration. Concurrent checkouts for the same user
// serialize on that lock; checkouts for different users proceed in
// parallel. If fn returns an error the transaction is rolled back and
// nothing is visible.
type CheckoutStore interface {
	InUserCartTx(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx CheckoutTx) error) error
}

// CheckoutService converts a user's cart into an immutable order.
type CheckoutService interface {
	// Checkout reads the user's cart, snapshots current prices, persists
	// the order and empties the cart as one atomic unit. Not idempotent:
	// two calls with a non-empty cart produce two orders.
	Checkout(ctx context.Context, userID uuid.UUID, addr Address, currency string) (*Order, error)
}
