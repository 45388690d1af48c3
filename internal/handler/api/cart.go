package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/handler"
	"github.com/rgoyal/smartbasket/internal/middleware"
)

// CartHandler serves the authenticated user's cart and checkout.
type CartHandler struct {
	carts    domain.CartService
	checkout domain.CheckoutService
}

func NewCartHandler(carts domain.CartService, checkout domain.CheckoutService) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout}
}

type cartItemResponse struct {
	ProductID uuid.UUID    `json:"product_id"`
	Title     string       `json:"title"`
	UnitPrice domain.Paise `json:"unit_price"`
	Quantity  int32        `json:"quantity"`
	LineTotal domain.Paise `json:"line_total"`
	Missing   bool         `json:"missing,omitempty"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal domain.Paise       `json:"subtotal"`
}

func toCartResponse(view *domain.CartView) cartResponse {
	items := make([]cartItemResponse, len(view.Items))
	for i, item := range view.Items {
		items[i] = cartItemResponse{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
			Missing:   item.Missing,
		}
	}
	return cartResponse{Items: items, Subtotal: view.Subtotal}
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	view, err := h.carts.GetCart(r.Context(), user.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]cartResponse{"cart": toCartResponse(view)})
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int32     `json:"quantity"`
	}
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.carts.AddItem(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]cartResponse{"cart": toCartResponse(view)})
}

// RemoveItem handles DELETE /api/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	productID, err := uuid.Parse(r.PathValue("product_id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("cart.remove", "Invalid product id"))
		return
	}

	view, err := h.carts.RemoveItem(r.Context(), user.ID, productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]cartResponse{"cart": toCartResponse(view)})
}

// Checkout handles POST /api/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req struct {
		Address  domain.Address `json:"address"`
		Currency string         `json:"currency"`
	}
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.checkout.Checkout(r.Context(), user.ID, req.Address, req.Currency)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, map[string]orderResponse{"order": toOrderResponse(order)})
}
