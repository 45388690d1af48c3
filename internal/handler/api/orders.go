package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/handler"
	"github.com/rgoyal/smartbasket/internal/middleware"
)

// OrderHandler serves order reads and the administrative status update.
type OrderHandler struct {
	orders domain.OrderService
}

func NewOrderHandler(orders domain.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderLineResponse struct {
	ProductID uuid.UUID    `json:"product_id"`
	Title     string       `json:"title"`
	Price     domain.Paise `json:"price"`
	Quantity  int32        `json:"quantity"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Lines         []orderLineResponse `json:"lines"`
	Address       domain.Address      `json:"address"`
	Total         domain.Paise        `json:"total"`
	Currency      string              `json:"currency"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	Status        string              `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	lines := make([]orderLineResponse, len(o.Lines))
	for i, line := range o.Lines {
		lines[i] = orderLineResponse{
			ProductID: line.ProductID,
			Title:     line.Title,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
	}
	return orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Lines:         lines,
		Address:       o.Address,
		Total:         o.Total,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	return out
}

// ListMine handles GET /api/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	orders, err := h.orders.ListUserOrders(r.Context(), user.ID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string][]orderResponse{"orders": toOrderResponses(orders)})
}

// ListAll handles GET /api/admin/orders?limit=N (admin)
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 0 {
			handler.ErrorResponse(w, r, domain.Invalid("order.list_all", "limit must be a non-negative integer"))
			return
		}
		limit = int32(parsed)
	}

	orders, err := h.orders.ListAllOrders(r.Context(), limit)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string][]orderResponse{"orders": toOrderResponses(orders)})
}

// Get handles GET /api/orders/{id}. Users may only read their own
// orders; admins may read any.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("order.get", "Invalid order id"))
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if order.UserID != user.ID && !user.IsAdmin() {
		// Hide the order's existence from other users.
		handler.ErrorResponse(w, r, domain.ErrOrderNotFound)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]orderResponse{"order": toOrderResponse(order)})
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("order.update_status", "Invalid order id"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]orderResponse{"order": toOrderResponse(order)})
}
