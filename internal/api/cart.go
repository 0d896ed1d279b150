package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront-api/internal/domain/cart"
	"github.com/xenking/storefront-api/internal/domain/product"
)

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type cartResponse struct {
	ID    string             `json:"id"`
	Items []cartItemResponse `json:"items"`
	Total float64            `json:"total"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Image:     it.Image,
			Quantity:  it.Quantity,
		}
	}
	return cartResponse{ID: c.ID, Items: items, Total: c.Total.InexactFloat64()}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCart returns the caller's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	c, err := h.carts.Get(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Cart not found", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

// AddToCart adds a product to the caller's cart, creating the cart on first
// use.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	c, err := h.carts.AddItem(r.Context(), u.ID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidQuantity):
			h.respondError(w, r, http.StatusBadRequest, "Quantity must be at least 1", nil)
		case errors.Is(err, product.ErrNotFound):
			h.respondError(w, r, http.StatusNotFound, "Product not found", nil)
		default:
			h.serverError(w, r, err)
		}
		return
	}
	h.respondJSON(w, r, http.StatusCreated, toCartResponse(c))
}

// RemoveFromCart drops a product's line from the caller's cart.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	c, err := h.carts.RemoveItem(r.Context(), u.ID, chi.URLParam(r, "productID"))
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Cart not found", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toCartResponse(c))
}
