package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/product"
)

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Stock       int     `json:"stock"`
	Featured    bool    `json:"featured"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Image:       p.Image,
		Stock:       p.Stock,
		Featured:    p.Featured,
	}
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
}

// ListProducts returns the whole catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toProductResponse(*p))
}

// CreateProduct adds a catalog entry. Admin only.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}
	if req.Name == "" || req.Price.IsNegative() {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", nil)
		return
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, toProductResponse(*p))
}

// UpdateProduct overwrites a catalog entry. Admin only.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	p := &product.Product{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	if err := h.products.Update(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toProductResponse(*p))
}

// DeleteProduct removes a catalog entry. Admin only.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Product not found", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]string{"message": "Product removed"})
}
