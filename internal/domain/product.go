package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product-related domain errors.
var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
)

// Product is a catalog entry. Price is held in minor units; the stock
// count is decremented atomically during checkout.
type Product struct {
	ID          uuid.UUID
	Title       string
	Description string
	Price       Paise
	Unit        string
	Images      []string
	Category    string
	Featured    bool
	Stock       int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks catalog invariants before a product is persisted.
func (p *Product) Validate() error {
	var err error
	if strings.TrimSpace(p.Title) == "" {
		err = AddFieldError(err, "title", "title is required")
	}
	if p.Price < 0 {
		err = AddFieldError(err, "price", "price must not be negative")
	}
	if strings.TrimSpace(p.Unit) == "" {
		err = AddFieldError(err, "unit", "unit is required")
	}
	if len(p.Images) == 0 {
		err = AddFieldError(err, "images", "at least one image URL is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		err = AddFieldError(err, "category", "category is required")
	}
	if p.Stock < 0 {
		err = AddFieldError(err, "stock", "stock must not be negative")
	}
	return err
}

// CatalogStore persists products. The checkout engine only depends on the
// read side (GetByID); the write side serves catalog administration.
type CatalogStore interface {
	// List returns all products, newest first.
	List(ctx context.Context) ([]Product, error)

	// GetByID returns a single product or ErrProductNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// SearchByTitle returns products whose title contains the query,
	// case-insensitively.
	SearchByTitle(ctx context.Context, query string) ([]Product, error)

	// Create inserts a product and fills its ID and timestamps.
	Create(ctx context.Context, p *Product) error

	// Update rewrites all product fields. Returns ErrProductNotFound if
	// the product does not exist.
	Update(ctx context.Context, p *Product) error

	// Delete removes a product. Carts may keep dangling references to a
	// deleted product; checkout reports those as ErrProductNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogService provides business logic for catalog operations.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	SearchProducts(ctx context.Context, title string) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}
