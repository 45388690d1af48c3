package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/events"
)

// ============================================================================
// In-memory checkout store
// ============================================================================

// memCheckoutStore implements domain.CheckoutStore with the same
// guarantees the Postgres store provides: a per-user lock held for the
// whole transaction, and staged writes that only become visible on
// commit.
type memCheckoutStore struct {
	mu       sync.Mutex
	userMu   map[uuid.UUID]*sync.Mutex
	carts    map[uuid.UUID][]domain.CartLine
	products map[uuid.UUID]domain.Product
	orders   []domain.Order
}

func newMemCheckoutStore() *memCheckoutStore {
	return &memCheckoutStore{
		userMu:   make(map[uuid.UUID]*sync.Mutex),
		carts:    make(map[uuid.UUID][]domain.CartLine),
		products: make(map[uuid.UUID]domain.Product),
	}
}

func (s *memCheckoutStore) lockFor(userID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userMu[userID]; !ok {
		s.userMu[userID] = &sync.Mutex{}
	}
	return s.userMu[userID]
}

func (s *memCheckoutStore) InUserCartTx(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx domain.CheckoutTx) error) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memCheckoutTx{
		store:      s,
		userID:     userID,
		stockDelta: make(map[uuid.UUID]int32),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Commit staged writes.
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, delta := range tx.stockDelta {
		p := s.products[id]
		p.Stock -= delta
		s.products[id] = p
	}
	if tx.order != nil {
		s.orders = append(s.orders, *tx.order)
	}
	if tx.cleared {
		s.carts[userID] = nil
	}
	return nil
}

// addLine mutates the cart the way the cart store does: serialized
// against any in-flight checkout through the same per-user lock.
func (s *memCheckoutStore) addLine(userID, productID uuid.UUID, qty int32) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += qty
			s.carts[userID] = lines
			return
		}
	}
	s.carts[userID] = append(lines, domain.CartLine{ProductID: productID, Quantity: qty})
}

type memCheckoutTx struct {
	store      *memCheckoutStore
	userID     uuid.UUID
	stockDelta map[uuid.UUID]int32
	order      *domain.Order
	cleared    bool
}

func (tx *memCheckoutTx) CartLines(_ context.Context) ([]domain.CartLine, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	lines := make([]domain.CartLine, len(tx.store.carts[tx.userID]))
	copy(lines, tx.store.carts[tx.userID])
	return lines, nil
}

func (tx *memCheckoutTx) Products(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	out := make(map[uuid.UUID]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := tx.store.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (tx *memCheckoutTx) DecrementStock(_ context.Context, productID uuid.UUID, qty int32) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	p, ok := tx.store.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock-tx.stockDelta[productID] < qty {
		return domain.ErrInsufficientStock
	}
	tx.stockDelta[productID] += qty
	return nil
}

func (tx *memCheckoutTx) CreateOrder(_ context.Context, o *domain.Order) error {
	o.ID = uuid.New()
	tx.order = o
	return nil
}

func (tx *memCheckoutTx) ClearCart(_ context.Context) error {
	tx.cleared = true
	return nil
}

// capturePublisher records published orders.
type capturePublisher struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
}

func (p *capturePublisher) OrderCreated(_ context.Context, order *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.orders = append(p.orders, order)
	return nil
}

func (p *capturePublisher) Close() {}

// ============================================================================
// Fixtures
// ============================================================================

var testAddress = domain.Address{
	Street:     "14 MG Road",
	City:       "Bengaluru",
	State:      "Karnataka",
	PostalCode: "560001",
	Country:    "India",
}

func mustPrice(t *testing.T, s string) domain.Paise {
	t.Helper()
	p, err := domain.ParsePrice(s)
	require.NoError(t, err)
	return p
}

func addProduct(s *memCheckoutStore, title string, price domain.Paise, stock int32) uuid.UUID {
	id := uuid.New()
	s.products[id] = domain.Product{
		ID:    id,
		Title: title,
		Price: price,
		Stock: stock,
	}
	return id
}

func newCheckout(store *memCheckoutStore, pub events.Publisher) domain.CheckoutService {
	if pub == nil {
		pub = &capturePublisher{}
	}
	return NewCheckoutService(store, pub, slog.New(slog.DiscardHandler))
}

// ============================================================================
// Tests
// ============================================================================

func TestCheckout_ExactTotal(t *testing.T) {
	store := newMemCheckoutStore()
	bananas := addProduct(store, "Organic Bananas", mustPrice(t, "29.90"), 10)
	spinach := addProduct(store, "Fresh Spinach", mustPrice(t, "34.90"), 10)
	milk := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 10)

	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{
		{ProductID: bananas, Quantity: 2},
		{ProductID: spinach, Quantity: 1},
		{ProductID: milk, Quantity: 3},
	}

	svc := newCheckout(store, nil)
	order, err := svc.Checkout(context.Background(), userID, testAddress, "")
	require.NoError(t, err)

	// 29.90*2 + 34.90*1 + 49.90*3 = 244.40, exactly.
	assert.Equal(t, domain.Paise(24440), order.Total)
	assert.Equal(t, "244.40", order.Total.String())
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, domain.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, testAddress, order.Address)
	require.Len(t, order.Lines, 3)
	assert.Equal(t, "Organic Bananas", order.Lines[0].Title)
	assert.Equal(t, mustPrice(t, "29.90"), order.Lines[0].Price)
	assert.NotEqual(t, uuid.Nil, order.ID)

	// Cart emptied and stock decremented in the same unit.
	assert.Empty(t, store.carts[userID])
	assert.Equal(t, int32(8), store.products[bananas].Stock)
	assert.Equal(t, int32(9), store.products[spinach].Stock)
	assert.Equal(t, int32(7), store.products[milk].Stock)
}

func TestCheckout_EmptyCart(t *testing.T) {
	store := newMemCheckoutStore()
	svc := newCheckout(store, nil)

	_, err := svc.Checkout(context.Background(), uuid.New(), testAddress, "INR")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, store.orders)
}

func TestCheckout_SecondCallFailsAfterSuccess(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	svc := newCheckout(store, nil)

	_, err := svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, store.orders, 1)
}

func TestCheckout_DeletedProduct(t *testing.T) {
	store := newMemCheckoutStore()
	kept := addProduct(store, "Fresh Spinach", mustPrice(t, "34.90"), 5)
	deleted := uuid.New() // never added to the catalog

	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{
		{ProductID: kept, Quantity: 1},
		{ProductID: deleted, Quantity: 2},
	}

	svc := newCheckout(store, nil)
	_, err := svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, err.Error(), deleted.String())

	// No partial writes: cart unchanged, no order, stock untouched.
	assert.Len(t, store.carts[userID], 2)
	assert.Empty(t, store.orders)
	assert.Equal(t, int32(5), store.products[kept].Stock)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 2)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 3}}

	svc := newCheckout(store, nil)
	_, err := svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), p.String())

	assert.Len(t, store.carts[userID], 1)
	assert.Empty(t, store.orders)
	assert.Equal(t, int32(2), store.products[p].Stock)
}

func TestCheckout_InvalidAddress(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	addr := testAddress
	addr.City = ""

	svc := newCheckout(store, nil)
	_, err := svc.Checkout(context.Background(), userID, addr, "INR")
	require.Error(t, err)
	require.True(t, domain.IsValidationError(err))
	assert.Contains(t, domain.GetValidationFields(err), "city")

	// Rejected before the store was touched.
	assert.Len(t, store.carts[userID], 1)
	assert.Empty(t, store.orders)
}

func TestCheckout_CurrencyOverride(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	svc := newCheckout(store, nil)
	order, err := svc.Checkout(context.Background(), userID, testAddress, "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", order.Currency)
}

func TestCheckout_ConcurrentSameUser(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	svc := newCheckout(store, nil)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), userID, testAddress, "INR")
		}(i)
	}
	wg.Wait()

	// Exactly one attempt wins; every loser observes the emptied cart.
	var succeeded, emptied int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrEmptyCart):
			emptied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, emptied)
	assert.Len(t, store.orders, 1)
	assert.Equal(t, int32(4), store.products[p].Stock)
}

func TestCheckout_AddDuringCheckoutSerializes(t *testing.T) {
	store := newMemCheckoutStore()
	bananas := addProduct(store, "Organic Bananas", mustPrice(t, "29.90"), 10)
	milk := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 10)

	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: bananas, Quantity: 2}}

	svc := newCheckout(store, nil)

	var wg sync.WaitGroup
	var checkoutErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, checkoutErr = svc.Checkout(context.Background(), userID, testAddress, "INR")
	}()
	go func() {
		defer wg.Done()
		store.addLine(userID, milk, 1)
	}()
	wg.Wait()

	require.NoError(t, checkoutErr)
	require.Len(t, store.orders, 1)
	order := store.orders[0]

	var orderQty, cartQty int32
	for _, line := range order.Lines {
		if line.ProductID == milk {
			orderQty += line.Quantity
		}
	}
	for _, line := range store.carts[userID] {
		if line.ProductID == milk {
			cartQty += line.Quantity
		}
	}

	// The add landed either before the checkout (inside the order) or
	// after it (left in the cart for the next one). Never both, never
	// lost.
	assert.Equal(t, int32(1), orderQty+cartQty)
	assert.Equal(t, int32(8), store.products[bananas].Stock)
	assert.Equal(t, 10-orderQty, store.products[milk].Stock)
}

func TestCheckout_ConcurrentDifferentUsers(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 100)

	const users = 10
	ids := make([]uuid.UUID, users)
	for i := range ids {
		ids[i] = uuid.New()
		store.carts[ids[i]] = []domain.CartLine{{ProductID: p, Quantity: 1}}
	}

	svc := newCheckout(store, nil)

	var wg sync.WaitGroup
	errs := make([]error, users)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), ids[i], testAddress, "INR")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "user %d", i)
	}
	assert.Len(t, store.orders, users)
	assert.Equal(t, int32(100-users), store.products[p].Stock)
}

func TestCheckout_SnapshotSurvivesCatalogEdit(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	svc := newCheckout(store, nil)
	order, err := svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.NoError(t, err)

	// Edit the catalog entry after the order was created.
	edited := store.products[p]
	edited.Title = "Toned Milk"
	edited.Price = mustPrice(t, "99.00")
	store.products[p] = edited

	persisted := store.orders[0]
	assert.Equal(t, "Whole Milk", persisted.Lines[0].Title)
	assert.Equal(t, mustPrice(t, "49.90"), persisted.Lines[0].Price)
	assert.Equal(t, mustPrice(t, "49.90"), order.Total)
}

func TestCheckout_CancelledContext(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newCheckout(store, nil)
	_, err := svc.Checkout(ctx, userID, testAddress, "INR")
	require.Error(t, err)

	// Cancellation before commit: neither the order nor the cart clear
	// became visible.
	assert.Empty(t, store.orders)
	assert.Len(t, store.carts[userID], 1)
}

func TestCheckout_PublishesOrderCreated(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 2}}

	pub := &capturePublisher{}
	svc := newCheckout(store, pub)

	order, err := svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.NoError(t, err)

	require.Len(t, pub.orders, 1)
	assert.Equal(t, order.ID, pub.orders[0].ID)
}

func TestCheckout_PublishFailureDoesNotFailCheckout(t *testing.T) {
	store := newMemCheckoutStore()
	p := addProduct(store, "Whole Milk", mustPrice(t, "49.90"), 5)
	userID := uuid.New()
	store.carts[userID] = []domain.CartLine{{ProductID: p, Quantity: 1}}

	pub := &capturePublisher{err: errors.New("broker down")}
	svc := newCheckout(store, pub)

	order, err := svc.Checkout(context.Background(), userID, testAddress, "INR")
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Len(t, store.orders, 1)
}
