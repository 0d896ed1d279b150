package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront-api/internal/domain/cart"
	"github.com/xenking/storefront-api/internal/domain/order"
)

const (
	findCartByUserSQL = `SELECT id, user_id, total, created_at, updated_at
		FROM carts WHERE user_id = $1`

	// FOR UPDATE serializes order placement against concurrent cart mutation
	// for the same user.
	findCartByUserForUpdateSQL = findCartByUserSQL + ` FOR UPDATE`

	listCartItemsSQL = `SELECT product_id, name, price, image, quantity
		FROM cart_items WHERE cart_id = $1 ORDER BY id`

	upsertCartSQL = `INSERT INTO carts (id, user_id, total)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET total = EXCLUDED.total, updated_at = now()
		RETURNING id`

	deleteCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	insertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, name, price, image, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteCartSQL = `DELETE FROM carts WHERE id = $1`
)

var (
	_ cart.Repository = (*CartRepository)(nil)
	_ order.CartStore = (*CartRepository)(nil)
)

// CartRepository implements cart.Repository and the order workflow's
// CartStore backed by PostgreSQL.
type CartRepository struct {
	db DB
}

// NewCartRepository returns a CartRepository over db, which may be a pool or
// an open transaction.
func NewCartRepository(db DB) *CartRepository {
	return &CartRepository{db: db}
}

// FindByUser returns the user's cart with its line items in insertion order.
func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	return r.findByUser(ctx, userID, findCartByUserSQL)
}

// FindByUserForUpdate is FindByUser with the cart row locked for the
// enclosing transaction.
func (r *CartRepository) FindByUserForUpdate(ctx context.Context, userID string) (*cart.Cart, error) {
	return r.findByUser(ctx, userID, findCartByUserForUpdateSQL)
}

func (r *CartRepository) findByUser(ctx context.Context, userID, query string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.Total, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("finding cart for user %q: %w", userID, err)
	}

	rows, err := r.db.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	c.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ProductID, &it.Name, &it.Price, &it.Image, &it.Quantity)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting cart items: %w", err)
	}
	return &c, nil
}

// Save upserts the cart row and replaces its line items atomically. When two
// requests race to create a user's first cart, the user_id conflict target
// makes the second one update the first one's row.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx, upsertCartSQL, c.ID, c.UserID, c.Total).Scan(&id); err != nil {
			return fmt.Errorf("upserting cart: %w", err)
		}
		c.ID = id

		if _, err := tx.Exec(ctx, deleteCartItemsSQL, id); err != nil {
			return fmt.Errorf("clearing cart items: %w", err)
		}
		for _, it := range c.Items {
			_, err := tx.Exec(ctx, insertCartItemSQL, id, it.ProductID, it.Name, it.Price, it.Image, it.Quantity)
			if err != nil {
				return fmt.Errorf("inserting cart item %q: %w", it.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving cart for user %q: %w", c.UserID, err)
	}
	return nil
}

// Delete removes the cart; its items cascade.
func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	if _, err := r.db.Exec(ctx, deleteCartSQL, cartID); err != nil {
		return fmt.Errorf("deleting cart %q: %w", cartID, err)
	}
	return nil
}
