package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront-api/internal/domain/product"
)

const (
	selectProductCols = `id, name, description, price, category, image, stock, featured, created_at, updated_at`

	listProductsSQL = `SELECT ` + selectProductCols + ` FROM products ORDER BY created_at, id`

	getProductByIDSQL = `SELECT ` + selectProductCols + ` FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (id, name, description, price, category, image, stock, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, image = $6,
			stock = $7, featured = $8, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db DB
}

// NewProductRepository returns a ProductRepository over db.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns the full catalog in creation order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new catalog entry.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.db.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock, p.Featured,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update overwrites an existing product's attributes.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.db.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock, p.Featured,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image,
		&p.Stock, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
