package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price, created_at`

// Search returns products whose name or description contains term,
// ignoring case. An empty term matches everything. strpos keeps % and _
// literal, unlike LIKE.
func (r *ProductRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if term == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY id
		`)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE strpos(lower(name), lower($1)) > 0
			   OR strpos(lower(description), lower($1)) > 0
			ORDER BY id
		`, term)
	}
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// GetMany loads the given products in one query. Ids with no row are absent
// from the result.
func (r *ProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	found := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products by id: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		found[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return found, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.Name, p.Description, p.Price).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (domain.Product, error) {
	if price.IsNegative() {
		return domain.Product{}, ErrInvalidPrice
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE products SET price = $1
		WHERE id = $2
		RETURNING `+productColumns, price, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("update price: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var p domain.Product
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
