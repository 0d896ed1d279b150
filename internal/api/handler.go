// Package api exposes the storefront over HTTP: auth, catalog, cart, and
// order endpoints, with JWT authentication and domain-error translation.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/auth"
	"github.com/xenking/storefront-api/internal/domain/cart"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
	"github.com/xenking/storefront-api/internal/domain/user"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// Debug attaches internal error detail to 5xx responses. Never enable in
	// production.
	Debug bool
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	cfg      HandlerConfig
	users    *user.Service
	userRepo user.Repository
	tokens   *auth.Tokens
	products product.Repository
	carts    *cart.Service
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	users *user.Service,
	userRepo user.Repository,
	tokens *auth.Tokens,
	products product.Repository,
	carts *cart.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		cfg:      cfg,
		users:    users,
		userRepo: userRepo,
		tokens:   tokens,
		products: products,
		carts:    carts,
		orders:   orders,
	}
}

// Routes builds the API router. Product reads are public; everything else
// behind the cart and order prefixes requires a valid bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate, h.AdminOnly)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Delete("/{productID}", h.RemoveFromCart)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
	})

	return r
}

// errorBody is the uniform error response. Detail carries internal error
// text only in debug builds.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	body := errorBody{Code: status, Message: message}
	if err != nil && h.cfg.Debug {
		body.Detail = err.Error()
	}
	h.respondJSON(w, r, status, body)
}

// serverError logs err and responds with a generic 500. Internal detail
// never leaks unless Debug is set.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	h.respondError(w, r, http.StatusInternalServerError, "Server error", err)
}

// decodeJSON parses the request body into dst. Unknown fields are ignored
// so clients can send supersets of the request shape.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
