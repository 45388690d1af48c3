package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/handler"
)

// ProductHandler serves catalog reads for everyone and catalog writes
// for admins.
type ProductHandler struct {
	catalog domain.CatalogService
}

func NewProductHandler(catalog domain.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type productResponse struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       domain.Paise `json:"price"`
	Unit        string       `json:"unit"`
	Images      []string     `json:"images"`
	Category    string       `json:"category"`
	Featured    bool         `json:"featured"`
	Stock       int32        `json:"stock"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Unit:        p.Unit,
		Images:      p.Images,
		Category:    p.Category,
		Featured:    p.Featured,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}
	return out
}

// productRequest is the write payload. Price comes in as a decimal
// string in major units, e.g. "29.90".
type productRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Unit        string   `json:"unit"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Featured    bool     `json:"featured"`
	Stock       int32    `json:"stock"`
}

func (req *productRequest) toProduct(op string) (*domain.Product, error) {
	price, err := domain.ParsePrice(req.Price)
	if err != nil {
		return nil, domain.NewValidationError(op, "price", domain.ErrorMessage(err))
	}
	return &domain.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Unit:        req.Unit,
		Images:      req.Images,
		Category:    req.Category,
		Featured:    req.Featured,
		Stock:       req.Stock,
	}, nil
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string][]productResponse{"products": toProductResponses(products)})
}

// Search handles GET /api/products/search?q=...
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string][]productResponse{"products": toProductResponses(products)})
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("product.get", "Invalid product id"))
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]productResponse{"product": toProductResponse(product)})
}

// Create handles POST /api/products (admin)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := req.toProduct("product.create")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.catalog.CreateProduct(r.Context(), product); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, map[string]productResponse{"product": toProductResponse(product)})
}

// Update handles PUT /api/products/{id} (admin)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("product.update", "Invalid product id"))
		return
	}

	var req productRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := req.toProduct("product.update")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	product.ID = id

	if err := h.catalog.UpdateProduct(r.Context(), product); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]productResponse{"product": toProductResponse(product)})
}

// Delete handles DELETE /api/products/{id} (admin)
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("product.delete", "Invalid product id"))
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
