package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a user has no cart.
var ErrNotFound = errors.New("cart not found")

// Item is a single cart line. Name, Price, and Image are snapshots of the
// product at the time it was added; later catalog edits do not change them.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price * quantity for this line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the mutable per-user staging list of intended purchases. Each user
// owns at most one cart.
type Cart struct {
	ID        string
	UserID    string
	Items     []Item
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecalculateTotal recomputes Total from the line items. Every mutation must
// call it before the cart is persisted.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	c.Total = total
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Repository defines persistence operations for carts.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	// Save upserts the cart and replaces its line items.
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, cartID string) error
}
