package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rgoyal/smartbasket/internal/domain"
)

type orderStore struct {
	db *DB
}

// NewOrderStore returns an OrderStore backed by the orders and
// order_items tables.
func NewOrderStore(db *DB) domain.OrderStore {
	return &orderStore{db: db}
}

const orderColumns = `id, user_id, street, city, state, postal_code, country,
	total, currency, payment_method, payment_status, status, created_at`

func scanOrder(row pgx.Row, o *domain.Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.Address.Street,
		&o.Address.City,
		&o.Address.State,
		&o.Address.PostalCode,
		&o.Address.Country,
		&o.Total,
		&o.Currency,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Status,
		&o.CreatedAt,
	)
}

// attachLines loads order_items for every order in orders, preserving
// line insertion order.
func attachLines(ctx context.Context, q querier, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for i := range orders {
		orders[i].Lines = []domain.OrderLine{}
		byID[orders[i].ID] = &orders[i]
		ids = append(ids, orders[i].ID)
	}

	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, title, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ProductID, &line.Title, &line.Price, &line.Quantity); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}

func (s *orderStore) collect(ctx context.Context, rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := attachLines(ctx, s.db.Pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *orderStore) ListAll(ctx context.Context, limit int32) ([]domain.Order, error) {
	const op = "postgres.order.list_all"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, storeErr(err, op, "failed to list orders")
	}

	orders, err := s.collect(ctx, rows)
	if err != nil {
		return nil, storeErr(err, op, "failed to scan orders")
	}
	return orders, nil
}

func (s *orderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	const op = "postgres.order.list_by_user"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, storeErr(err, op, "failed to list user orders")
	}

	orders, err := s.collect(ctx, rows)
	if err != nil {
		return nil, storeErr(err, op, "failed to scan user orders")
	}
	return orders, nil
}

func (s *orderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgres.order.get"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1`, id)

	var o domain.Order
	if err := scanOrder(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, storeErr(err, op, "failed to get order")
	}

	orders := []domain.Order{o}
	if err := attachLines(ctx, s.db.Pool, orders); err != nil {
		return nil, storeErr(err, op, "failed to load order lines")
	}
	return &orders[0], nil
}

func (s *orderStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	const op = "postgres.order.update_status"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE orders
		SET status = $2
		WHERE id = $1`, id, status)
	if err != nil {
		return storeErr(err, op, "failed to update order status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
