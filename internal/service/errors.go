package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// Sentinel errors shared across services. Callers match them with
// errors.Is; the handler layer maps their codes to HTTP statuses.
var (
	ErrEmptyCart         = domain.ErrEmptyCart
	ErrInvalidQuantity   = domain.ErrInvalidQuantity
	ErrProductNotFound   = domain.ErrProductNotFound
	ErrOrderNotFound     = domain.ErrOrderNotFound
	ErrInsufficientStock = domain.ErrInsufficientStock
	ErrUserNotFound      = domain.ErrUserNotFound
	ErrEmailTaken        = domain.ErrEmailTaken
	ErrInvalidCreds      = domain.ErrInvalidCredentials
	ErrSessionNotFound   = domain.ErrSessionNotFound
)

// productNotFoundErr names the offending product so the caller can act on
// it. Wraps ErrProductNotFound for errors.Is matching.
func productNotFoundErr(op string, id uuid.UUID) error {
	return &domain.Error{
		Code:    domain.ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("product not found: %s", id),
		Err:     ErrProductNotFound,
	}
}

// insufficientStockErr names the product that ran short.
func insufficientStockErr(op string, id uuid.UUID, requested, available int32) error {
	return &domain.Error{
		Code:    domain.ECONFLICT,
		Op:      op,
		Message: fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", id, requested, available),
		Err:     ErrInsufficientStock,
	}
}

// invalidStatusErr rejects an unknown order status value.
func invalidStatusErr(op, status string) error {
	return domain.Errorf(domain.EINVALID, op, "invalid order status: %q", status)
}
