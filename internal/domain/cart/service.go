package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront-api/internal/domain/product"
)

// ErrInvalidQuantity is returned when an add request carries a quantity
// below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Service implements cart reads and mutations. The cart is created lazily on
// the first add and the total is recomputed server-side after every change.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Get returns the user's cart, or ErrNotFound when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.carts.FindByUser(ctx, userID)
}

// AddItem adds quantity units of a product to the user's cart, snapshotting
// the product's name, price, and image. Adding a product already in the cart
// increases that line's quantity instead of creating a second line.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %s", productID)
	}

	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(err, "find cart")
		}
		c = &Cart{ID: uuid.New().String(), UserID: userID}
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  quantity,
		})
	}

	c.RecalculateTotal()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemoveItem drops the product's line from the user's cart entirely and
// recomputes the total. Removing a product that is not in the cart is a
// no-op on the items but still persists the cart, matching the original
// endpoint behaviour.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept

	c.RecalculateTotal()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
