package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rgoyal/smartbasket/internal/domain"
)

type checkoutStore struct {
	db *DB
}

// NewCheckoutStore returns a CheckoutStore that serializes checkouts per
// user on the cart row lock.
func NewCheckoutStore(db *DB) domain.CheckoutStore {
	return &checkoutStore{db: db}
}

// InUserCartTx upserts the user's cart row inside a fresh transaction,
// which leaves the row exclusively locked until commit or rollback.
// A concurrent checkout for the same user blocks on that lock and then
// observes whatever the winner committed; checkouts for other users are
// unaffected. fn returning an error rolls everything back.
func (s *checkoutStore) InUserCartTx(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx domain.CheckoutTx) error) error {
	const op = "postgres.checkout.tx"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		var cartID uuid.UUID
		if err := tx.QueryRow(ctx, ensureCartSQL, userID).Scan(&cartID); err != nil {
			return err
		}
		return fn(ctx, &checkoutTx{tx: tx, cartID: cartID, userID: userID})
	})
	if err != nil {
		return storeErr(err, op, "checkout transaction failed")
	}
	return nil
}

// checkoutTx implements domain.CheckoutTx over a single pgx transaction
// holding the cart row lock.
type checkoutTx struct {
	tx     pgx.Tx
	cartID uuid.UUID
	userID uuid.UUID
}

func (t *checkoutTx) CartLines(ctx context.Context) ([]domain.CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT product_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, product_id`, t.cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (t *checkoutTx) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[uuid.UUID]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (t *checkoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, qty int32) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (t *checkoutTx) CreateOrder(ctx context.Context, o *domain.Order) error {
	row := t.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, street, city, state, postal_code, country,
			total, currency, payment_method, payment_status, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		o.UserID,
		o.Address.Street, o.Address.City, o.Address.State, o.Address.PostalCode, o.Address.Country,
		o.Total, o.Currency, o.PaymentMethod, o.PaymentStatus, o.Status)

	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		return err
	}

	for i, line := range o.Lines {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, product_id, title, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, i, line.ProductID, line.Title, line.Price, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, t.cartID)
	return err
}
