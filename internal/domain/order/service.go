package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront-api/internal/domain/cart"
)

// Sentinel errors for order placement. All of them leave the system
// untouched: no order created, cart intact.
var (
	ErrInvalidInput  = errors.New("shipping address and payment method are required")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrPaymentFailed = errors.New("payment failed")
	ErrNotFound      = errors.New("order not found")
)

// CreationFailedError indicates an infrastructure fault after the gateway
// already approved the charge. The transaction is rolled back so the cart
// survives and no partial order is visible, but the charge now has no order;
// the carried fields identify it for out-of-band reconciliation.
type CreationFailedError struct {
	UserID     string
	Amount     decimal.Decimal
	PaymentRef string
	Err        error
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("order creation failed after payment (user %s, amount %s, ref %s): %v",
		e.UserID, e.Amount, e.PaymentRef, e.Err)
}

func (e *CreationFailedError) Unwrap() error { return e.Err }

// ChargeResult is the gateway's answer to a charge request.
type ChargeResult struct {
	Approved  bool
	Reference string
	Code      string
}

// Gateway authorizes a charge against a payment method. Implementations must
// honor ctx cancellation; the workflow bounds every call with a timeout.
type Gateway interface {
	Charge(ctx context.Context, method string, amount decimal.Decimal) (*ChargeResult, error)
}

// CartStore is the transactional view of cart persistence the workflow
// needs. FindByUserForUpdate must lock the cart row for the duration of the
// transaction so concurrent mutations and double submits serialize against
// the placement.
type CartStore interface {
	FindByUserForUpdate(ctx context.Context, userID string) (*cart.Cart, error)
	Delete(ctx context.Context, cartID string) error
}

// Stores exposes the repositories bound to one transaction.
type Stores interface {
	Carts() CartStore
	Orders() Repository
}

// TxManager runs fn inside a single transaction: every store operation fn
// performs commits together or not at all. A non-nil error from fn rolls
// everything back and is returned unchanged.
type TxManager interface {
	InTx(ctx context.Context, fn func(tx Stores) error) error
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID          string
	ShippingAddress ShippingAddress
	PaymentMethod   string
}

// PlaceOrderResult holds the outcome of a successfully placed order.
type PlaceOrderResult struct {
	Order *Order
}

// Config holds non-dependency settings for the Service.
type Config struct {
	// ChargeTimeout bounds every gateway call so a hanging payment provider
	// cannot hold the cart lock open indefinitely. Expiry surfaces as
	// ErrPaymentFailed.
	ChargeTimeout time.Duration

	// EvictCart, when set, is called after a committed placement to drop any
	// cached copy of the user's now-deleted cart. Best effort.
	EvictCart func(ctx context.Context, userID string)
}

// DefaultChargeTimeout applies when Config.ChargeTimeout is zero.
const DefaultChargeTimeout = 10 * time.Second

// Service is the order workflow engine plus the thin read side. PlaceOrder
// converts a mutable cart into an immutable order in one atomic unit.
type Service struct {
	tx      TxManager
	gateway Gateway
	orders  Repository
	cfg     Config
}

// NewService creates the order Service with the required dependencies.
func NewService(tx TxManager, gateway Gateway, orders Repository, cfg Config) *Service {
	if cfg.ChargeTimeout <= 0 {
		cfg.ChargeTimeout = DefaultChargeTimeout
	}
	return &Service{tx: tx, gateway: gateway, orders: orders, cfg: cfg}
}

// PlaceOrder validates the request, charges the gateway for the cart total,
// and atomically persists the order snapshot while deleting the cart.
// Any failure leaves the system as if the request never happened, except the
// charged-but-unpersisted case which surfaces as *CreationFailedError.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if req.PaymentMethod == "" || req.ShippingAddress.IsZero() {
		return nil, ErrInvalidInput
	}

	// A client abort must not tear the workflow mid-flight: once started it
	// runs to commit or full rollback.
	ctx = context.WithoutCancel(ctx)

	var (
		placed    *Order
		chargeRef string
		amount    decimal.Decimal
	)
	err := s.tx.InTx(ctx, func(tx Stores) error {
		c, err := tx.Carts().FindByUserForUpdate(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, cart.ErrNotFound) {
				return ErrEmptyCart
			}
			return errors.Wrap(err, "load cart")
		}
		// Re-check under the row lock: the cart may have been emptied between
		// the caller's validation and now.
		if c.IsEmpty() {
			return ErrEmptyCart
		}
		amount = c.Total

		chargeCtx, cancel := context.WithTimeout(ctx, s.cfg.ChargeTimeout)
		defer cancel()
		res, err := s.gateway.Charge(chargeCtx, req.PaymentMethod, c.Total)
		if err != nil {
			// Declines, gateway faults, and timeouts are all terminal for this
			// request; the caller must resubmit.
			return errors.Wrap(ErrPaymentFailed, err.Error())
		}
		if !res.Approved {
			return ErrPaymentFailed
		}
		chargeRef = res.Reference

		now := time.Now()
		o := &Order{
			ID:              uuid.New().String(),
			UserID:          req.UserID,
			Items:           snapshotItems(c.Items),
			Total:           c.Total,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   PaymentPaid,
			PaymentRef:      res.Reference,
			Status:          StatusProcessing,
			Paid:            true,
			PaidAt:          &now,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return &CreationFailedError{UserID: req.UserID, Amount: c.Total, PaymentRef: res.Reference, Err: err}
		}
		if err := tx.Carts().Delete(ctx, c.ID); err != nil {
			return &CreationFailedError{UserID: req.UserID, Amount: c.Total, PaymentRef: res.Reference, Err: err}
		}
		placed = o
		return nil
	})
	if err != nil {
		var cfe *CreationFailedError
		if !errors.As(err, &cfe) && chargeRef != "" {
			// The commit itself failed after an approved charge.
			return nil, &CreationFailedError{UserID: req.UserID, Amount: amount, PaymentRef: chargeRef, Err: err}
		}
		return nil, err
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", placed.ID),
		attribute.String("order.total", placed.Total.String()),
	)

	if s.cfg.EvictCart != nil {
		s.cfg.EvictCart(ctx, req.UserID)
	}
	return &PlaceOrderResult{Order: placed}, nil
}

// ListByUser returns all of the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetByUser returns one order scoped to its owner. Missing orders and
// ownership mismatches both yield ErrNotFound.
func (s *Service) GetByUser(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.orders.GetByUser(ctx, userID, orderID)
}
