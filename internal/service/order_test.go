package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgoyal/smartbasket/internal/domain"
)

// memOrderStore implements domain.OrderStore in memory.
type memOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[uuid.UUID]domain.Order)}
}

func (s *memOrderStore) put(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *memOrderStore) sorted() []domain.Order {
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memOrderStore) ListAll(_ context.Context, limit int32) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted()
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memOrderStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Order
	for _, o := range s.sorted() {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memOrderStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memOrderStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func seedOrder(store *memOrderStore, userID uuid.UUID, createdAt time.Time) domain.Order {
	o := domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Lines:         []domain.OrderLine{{ProductID: uuid.New(), Title: "Whole Milk", Price: 4990, Quantity: 1}},
		Total:         4990,
		Currency:      "INR",
		PaymentMethod: domain.PaymentMethodCOD,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.OrderStatusProcessing,
		CreatedAt:     createdAt,
	}
	store.put(o)
	return o
}

func newOrderSvc(store *memOrderStore) domain.OrderService {
	return NewOrderService(store, slog.New(slog.DiscardHandler))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	store := newMemOrderStore()
	o := seedOrder(store, uuid.New(), time.Now())
	svc := newOrderSvc(store)

	updated, err := svc.UpdateOrderStatus(context.Background(), o.ID, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	// Immutable fields survive the transition.
	assert.Equal(t, o.Total, updated.Total)
	assert.Equal(t, o.Lines, updated.Lines)
}

func TestOrderService_UpdateStatusRejectsUnknownValue(t *testing.T) {
	store := newMemOrderStore()
	o := seedOrder(store, uuid.New(), time.Now())
	svc := newOrderSvc(store)

	_, err := svc.UpdateOrderStatus(context.Background(), o.ID, "refunded")
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	// Previous status intact.
	stored, err := store.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, stored.Status)
}

func TestOrderService_UpdateStatusUnknownOrder(t *testing.T) {
	svc := newOrderSvc(newMemOrderStore())

	_, err := svc.UpdateOrderStatus(context.Background(), uuid.New(), domain.OrderStatusShipped)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListUserOrdersNewestFirst(t *testing.T) {
	store := newMemOrderStore()
	userID := uuid.New()
	now := time.Now()
	older := seedOrder(store, userID, now.Add(-time.Hour))
	newer := seedOrder(store, userID, now)
	seedOrder(store, uuid.New(), now) // another user's order

	svc := newOrderSvc(store)
	orders, err := svc.ListUserOrders(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
}

func TestOrderService_ListAllCapsLimit(t *testing.T) {
	store := newMemOrderStore()
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedOrder(store, uuid.New(), now.Add(time.Duration(i)*time.Second))
	}

	svc := newOrderSvc(store)

	orders, err := svc.ListAllOrders(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	// Zero and negative limits fall back to the administrative cap.
	orders, err = svc.ListAllOrders(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, orders, 5)
}
