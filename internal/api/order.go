package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/order"
)

type shippingAddressDTO struct {
	FullName   string `json:"fullName,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type placeOrderRequest struct {
	ShippingAddress shippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

type placeOrderResponse struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Items           []orderItemResponse `json:"items"`
	Total           float64             `json:"total"`
	ShippingAddress shippingAddressDTO  `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	PaymentStatus   string              `json:"paymentStatus"`
	OrderStatus     string              `json:"orderStatus"`
	Paid            bool                `json:"paid"`
	PaidAt          *time.Time          `json:"paidAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.InexactFloat64(),
			Image:     it.Image,
			Quantity:  it.Quantity,
		}
	}
	return orderResponse{
		ID:    o.ID,
		Items: items,
		Total: o.Total.InexactFloat64(),
		ShippingAddress: shippingAddressDTO{
			FullName:   o.ShippingAddress.FullName,
			Address:    o.ShippingAddress.Address,
			City:       o.ShippingAddress.City,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
		},
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: string(o.PaymentStatus),
		OrderStatus:   string(o.Status),
		Paid:          o.Paid,
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
	}
}

// PlaceOrder runs the order workflow for the caller's cart and maps the
// outcome onto the HTTP contract.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID: u.ID,
		ShippingAddress: order.ShippingAddress{
			FullName:   req.ShippingAddress.FullName,
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.placeOrderError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, placeOrderResponse{
		OrderID: result.Order.ID,
		Message: "Order placed",
	})
}

// placeOrderError translates workflow errors into status codes. Validation
// and payment failures are the caller's to fix; everything else is a logged
// server fault with a generic message.
func (h *Handler) placeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var cfe *order.CreationFailedError
	switch {
	case errors.Is(err, order.ErrInvalidInput):
		h.respondError(w, r, http.StatusBadRequest, "Shipping address and payment method are required", nil)
	case errors.Is(err, order.ErrEmptyCart):
		h.respondError(w, r, http.StatusBadRequest, "Cart is empty", nil)
	case errors.Is(err, order.ErrPaymentFailed):
		h.respondError(w, r, http.StatusBadRequest, "Payment processing failed", nil)
	case errors.As(err, &cfe):
		// The charge went through but no order exists. Log the correlation
		// fields needed to reconcile it; never the payment method itself.
		zctx.From(r.Context()).Error("order creation failed after payment",
			zap.String("user_id", cfe.UserID),
			zap.String("amount", cfe.Amount.String()),
			zap.String("payment_ref", cfe.PaymentRef),
			zap.Error(cfe.Err),
		)
		h.respondError(w, r, http.StatusInternalServerError, "Server error", err)
	default:
		h.serverError(w, r, err)
	}
}

// ListOrders returns the caller's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), u.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	h.respondJSON(w, r, http.StatusOK, out)
}

// GetOrder returns one of the caller's orders. Someone else's order looks
// exactly like a missing one.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	o, err := h.orders.GetByUser(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Order not found", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, toOrderResponse(*o))
}
