package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rgoyal/smartbasket/internal/domain"
)

type cartStore struct {
	db *DB
}

// NewCartStore returns a CartStore backed by the carts and cart_items
// tables. Carts are created lazily on first write.
func NewCartStore(db *DB) domain.CartStore {
	return &cartStore{db: db}
}

// ensureCart upserts the user's cart row and returns its id. The DO
// UPDATE arm makes the statement return a row even when the cart
// already exists.
const ensureCartSQL = `
	INSERT INTO carts (user_id)
	VALUES ($1)
	ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
	RETURNING id`

func loadCart(ctx context.Context, q querier, userID uuid.UUID) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Lines: []domain.CartLine{}}

	row := q.QueryRow(ctx, `SELECT id, updated_at FROM carts WHERE user_id = $1`, userID)

	var cartID uuid.UUID
	if err := row.Scan(&cartID, &cart.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT product_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, rows.Err()
}

func (s *cartStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	const op = "postgres.cart.get"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	cart, err := loadCart(ctx, s.db.Pool, userID)
	if err != nil {
		return nil, storeErr(err, op, "failed to load cart")
	}
	return cart, nil
}

func (s *cartStore) AddLine(ctx context.Context, userID, productID uuid.UUID, qty int32) (*domain.Cart, error) {
	const op = "postgres.cart.add_line"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var cart *domain.Cart
	err := pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		var cartID uuid.UUID
		if err := tx.QueryRow(ctx, ensureCartSQL, userID).Scan(&cartID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
			cartID, productID, qty); err != nil {
			return err
		}

		var err error
		cart, err = loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, storeErr(err, op, "failed to add cart line")
	}
	return cart, nil
}

func (s *cartStore) RemoveLine(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	const op = "postgres.cart.remove_line"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var cart *domain.Cart
	err := pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM cart_items
			WHERE product_id = $2
			  AND cart_id = (SELECT id FROM carts WHERE user_id = $1)`,
			userID, productID); err != nil {
			return err
		}

		var err error
		cart, err = loadCart(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, storeErr(err, op, "failed to remove cart line")
	}
	return cart, nil
}
