package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// catalogService implements domain.CatalogService.
type catalogService struct {
	catalog domain.CatalogStore
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(catalog domain.CatalogStore) domain.CatalogService {
	return &catalogService{catalog: catalog}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.List(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.catalog.GetByID(ctx, id)
}

func (s *catalogService) SearchProducts(ctx context.Context, title string) ([]domain.Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.Invalid("product.search", "search title is required")
	}
	return s.catalog.SearchByTitle(ctx, title)
}

func (s *catalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.catalog.Create(ctx, p)
}

func (s *catalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.catalog.Update(ctx, p)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.catalog.Delete(ctx, id)
}
