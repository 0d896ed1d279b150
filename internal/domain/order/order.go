package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/cart"
)

// PaymentStatus is the closed set of payment states an order can carry.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Status is the fulfillment state of an order. New orders start in
// StatusProcessing; nothing in this service transitions them further.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Item is a frozen order line, copied from the cart at placement time and
// never recomputed from live product data.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// ShippingAddress holds the destination for an order. All sub-fields are
// optional; the address as a whole must be present on placement.
type ShippingAddress struct {
	FullName   string `json:"full_name,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no sub-field is set.
func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}

// Order is an immutable snapshot of a cart plus payment and shipping
// metadata, created exactly once by the placement workflow.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	Total           decimal.Decimal
	ShippingAddress ShippingAddress
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	PaymentRef      string
	Status          Status
	Paid            bool
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// snapshotItems deep-copies cart lines into order lines.
func snapshotItems(items []cart.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
		}
	}
	return out
}

// Repository defines persistence operations for orders. Create participates
// in the placement transaction; the reads are plain queries.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// GetByUser returns the order only when it exists AND belongs to userID.
	// An ownership mismatch is indistinguishable from a missing order.
	GetByUser(ctx context.Context, userID, orderID string) (*Order, error)
}
