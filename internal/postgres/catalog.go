package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rgoyal/smartbasket/internal/domain"
)

type catalogStore struct {
	db *DB
}

// NewCatalogStore returns a CatalogStore backed by the products table.
func NewCatalogStore(db *DB) domain.CatalogStore {
	return &catalogStore{db: db}
}

const productColumns = `id, title, description, price, unit, images, category, featured, stock, created_at, updated_at`

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Unit,
		&p.Images,
		&p.Category,
		&p.Featured,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *catalogStore) List(ctx context.Context) ([]domain.Product, error) {
	const op = "postgres.catalog.list"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storeErr(err, op, "failed to list products")
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, storeErr(err, op, "failed to scan products")
	}
	return products, nil
}

func (s *catalogStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const op = "postgres.catalog.get"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1`, id)

	var p domain.Product
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, storeErr(err, op, "failed to get product")
	}
	return &p, nil
}

// likeEscaper neutralizes LIKE metacharacters in user search input so
// that "100%" matches the literal string instead of everything.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *catalogStore) SearchByTitle(ctx context.Context, query string) ([]domain.Product, error) {
	const op = "postgres.catalog.search"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id DESC`, escapeLike(query))
	if err != nil {
		return nil, storeErr(err, op, "failed to search products")
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, storeErr(err, op, "failed to scan products")
	}
	return products, nil
}

func (s *catalogStore) Create(ctx context.Context, p *domain.Product) error {
	const op = "postgres.catalog.create"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		INSERT INTO products (title, description, price, unit, images, category, featured, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.Title, p.Description, p.Price, p.Unit, p.Images, p.Category, p.Featured, p.Stock)

	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return storeErr(err, op, "failed to create product")
	}
	return nil
}

func (s *catalogStore) Update(ctx context.Context, p *domain.Product) error {
	const op = "postgres.catalog.update"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	row := s.db.Pool.QueryRow(ctx, `
		UPDATE products
		SET title = $2,
		    description = $3,
		    price = $4,
		    unit = $5,
		    images = $6,
		    category = $7,
		    featured = $8,
		    stock = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Description, p.Price, p.Unit, p.Images, p.Category, p.Featured, p.Stock)

	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return storeErr(err, op, "failed to update product")
	}
	return nil
}

func (s *catalogStore) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.catalog.delete"

	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return storeErr(err, op, "failed to delete product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
