package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront-api/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
			id, user_id, items, total,
			ship_full_name, ship_address, ship_city, ship_postal_code, ship_country,
			payment_method, payment_status, payment_ref, order_status, paid, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	selectOrderCols = `id, user_id, items, total,
			ship_full_name, ship_address, ship_city, ship_postal_code, ship_country,
			payment_method, payment_status, payment_ref, order_status, paid, paid_at,
			created_at, updated_at`

	listOrdersByUserSQL = `SELECT ` + selectOrderCols + `
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	getOrderByUserSQL = `SELECT ` + selectOrderCols + `
		FROM orders WHERE id = $1 AND user_id = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// items are frozen into a JSONB column at creation time.
type OrderRepository struct {
	db DB
}

// NewOrderRepository returns an OrderRepository over db, which may be a pool
// or an open transaction.
func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order snapshot.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.db.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.Total,
		o.ShippingAddress.FullName, o.ShippingAddress.Address, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		o.PaymentMethod, string(o.PaymentStatus), o.PaymentRef, string(o.Status), o.Paid, o.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListByUser returns all of the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByUser returns one order scoped to its owner. A missing order and an
// ownership mismatch are both order.ErrNotFound.
func (r *OrderRepository) GetByUser(ctx context.Context, userID, orderID string) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderByUserSQL, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		payStatus string
		status    string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &itemsJSON, &o.Total,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Address, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &payStatus, &o.PaymentRef, &status, &o.Paid, &o.PaidAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.PaymentStatus = order.PaymentStatus(payStatus)
	o.Status = order.Status(status)
	return o, nil
}
