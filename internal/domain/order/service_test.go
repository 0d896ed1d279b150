package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-api/internal/domain/cart"
)

// --- Mock implementations ---

type mockCartStore struct {
	cart      *cart.Cart
	findErr   error
	deleted   bool
	deleteErr error
}

func (m *mockCartStore) FindByUserForUpdate(_ context.Context, _ string) (*cart.Cart, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.cart == nil {
		return nil, cart.ErrNotFound
	}
	return m.cart, nil
}

func (m *mockCartStore) Delete(_ context.Context, _ string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

type mockOrderRepo struct {
	created   *Order
	createErr error
	listed    []Order
	got       *Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]Order, error) {
	return m.listed, nil
}

func (m *mockOrderRepo) GetByUser(_ context.Context, _, _ string) (*Order, error) {
	if m.got == nil {
		return nil, ErrNotFound
	}
	return m.got, nil
}

type mockStores struct {
	carts  *mockCartStore
	orders *mockOrderRepo
}

func (m *mockStores) Carts() CartStore   { return m.carts }
func (m *mockStores) Orders() Repository { return m.orders }

type mockTxManager struct {
	stores     *mockStores
	commitErr  error
	rolledBack bool
}

func (m *mockTxManager) InTx(_ context.Context, fn func(tx Stores) error) error {
	if err := fn(m.stores); err != nil {
		m.rolledBack = true
		return err
	}
	return m.commitErr
}

type mockGateway struct {
	result *ChargeResult
	err    error
	// block makes Charge wait for ctx expiry, simulating a hanging provider.
	block bool

	method string
	amount decimal.Decimal
}

func (m *mockGateway) Charge(ctx context.Context, method string, amount decimal.Decimal) (*ChargeResult, error) {
	m.method = method
	m.amount = amount
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// --- Helpers ---

func testCart() *cart.Cart {
	c := &cart.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Items: []cart.Item{
			{ProductID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductID: "p2", Name: "Gadget", Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
	}
	c.RecalculateTotal()
	return c
}

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:          "user-1",
		ShippingAddress: ShippingAddress{FullName: "Jane Doe", Address: "1 Main St", City: "Metropolis"},
		PaymentMethod:   "card",
	}
}

func newWorkflow(c *cart.Cart, gw *mockGateway) (*Service, *mockTxManager) {
	tx := &mockTxManager{stores: &mockStores{
		carts:  &mockCartStore{cart: c},
		orders: &mockOrderRepo{},
	}}
	return NewService(tx, gw, tx.stores.orders, Config{}), tx
}

func approvingGateway() *mockGateway {
	return &mockGateway{result: &ChargeResult{Approved: true, Reference: "ch_123"}}
}

// --- Tests ---

func TestPlaceOrder_MissingPaymentMethod(t *testing.T) {
	svc, tx := newWorkflow(testCart(), approvingGateway())

	req := validRequest()
	req.PaymentMethod = ""
	_, err := svc.PlaceOrder(context.Background(), req)

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, tx.stores.orders.created)
	assert.False(t, tx.stores.carts.deleted)
}

func TestPlaceOrder_MissingShippingAddress(t *testing.T) {
	svc, _ := newWorkflow(testCart(), approvingGateway())

	req := validRequest()
	req.ShippingAddress = ShippingAddress{}
	_, err := svc.PlaceOrder(context.Background(), req)

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlaceOrder_NoCart(t *testing.T) {
	svc, tx := newWorkflow(nil, approvingGateway())

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, tx.stores.orders.created)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	empty := &cart.Cart{ID: "cart-1", UserID: "user-1"}
	svc, tx := newWorkflow(empty, approvingGateway())

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, tx.stores.orders.created)
	assert.False(t, tx.stores.carts.deleted)
}

func TestPlaceOrder_PaymentDeclined(t *testing.T) {
	gw := &mockGateway{result: &ChargeResult{Approved: false, Code: "card_declined"}}
	svc, tx := newWorkflow(testCart(), gw)

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.Nil(t, tx.stores.orders.created, "no order after a declined charge")
	assert.False(t, tx.stores.carts.deleted, "cart survives a declined charge")
	assert.True(t, tx.rolledBack)
}

func TestPlaceOrder_GatewayError(t *testing.T) {
	gw := &mockGateway{err: errors.New("connection reset")}
	svc, tx := newWorkflow(testCart(), gw)

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.False(t, tx.stores.carts.deleted)
}

func TestPlaceOrder_GatewayTimeout(t *testing.T) {
	gw := &mockGateway{block: true}
	tx := &mockTxManager{stores: &mockStores{
		carts:  &mockCartStore{cart: testCart()},
		orders: &mockOrderRepo{},
	}}
	svc := NewService(tx, gw, tx.stores.orders, Config{ChargeTimeout: 10 * time.Millisecond})

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.False(t, tx.stores.carts.deleted)
}

func TestPlaceOrder_Success(t *testing.T) {
	gw := approvingGateway()
	svc, tx := newWorkflow(testCart(), gw)

	evicted := ""
	svc.cfg.EvictCart = func(_ context.Context, userID string) { evicted = userID }

	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, result.Order)

	o := result.Order
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "user-1", o.UserID)
	assert.True(t, decimal.RequireFromString("25.00").Equal(o.Total))
	assert.True(t, decimal.RequireFromString("25.00").Equal(gw.amount), "gateway charged the cart total")
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Widget", o.Items[0].Name)
	assert.Equal(t, 2, o.Items[0].Quantity)

	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.True(t, o.Paid)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, "ch_123", o.PaymentRef)

	assert.True(t, tx.stores.carts.deleted, "cart deleted in the same transaction")
	assert.Same(t, o, tx.stores.orders.created)
	assert.Equal(t, "user-1", evicted)
}

func TestPlaceOrder_SnapshotImmutable(t *testing.T) {
	c := testCart()
	svc, _ := newWorkflow(c, approvingGateway())

	result, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	// Mutating the source cart after placement must not leak into the order.
	c.Items[0].Name = "Renamed"
	c.Items[0].Price = decimal.RequireFromString("99.99")

	assert.Equal(t, "Widget", result.Order.Items[0].Name)
	assert.True(t, decimal.RequireFromString("10.00").Equal(result.Order.Items[0].Price))
}

func TestPlaceOrder_PersistFailsAfterCharge(t *testing.T) {
	svc, tx := newWorkflow(testCart(), approvingGateway())
	tx.stores.orders.createErr = errors.New("db write failed")

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	var cfe *CreationFailedError
	require.ErrorAs(t, err, &cfe)
	assert.Equal(t, "user-1", cfe.UserID)
	assert.True(t, decimal.RequireFromString("25.00").Equal(cfe.Amount))
	assert.Equal(t, "ch_123", cfe.PaymentRef)

	assert.False(t, tx.stores.carts.deleted, "cart preserved when persistence fails")
	assert.True(t, tx.rolledBack, "no partial order visible")
}

func TestPlaceOrder_CartDeleteFailsAfterCharge(t *testing.T) {
	svc, tx := newWorkflow(testCart(), approvingGateway())
	tx.stores.carts.deleteErr = errors.New("delete failed")

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	var cfe *CreationFailedError
	require.ErrorAs(t, err, &cfe)
	assert.True(t, tx.rolledBack, "order insert rolled back with the failed delete")
}

func TestPlaceOrder_CommitFailsAfterCharge(t *testing.T) {
	svc, tx := newWorkflow(testCart(), approvingGateway())
	tx.commitErr = errors.New("commit failed")

	_, err := svc.PlaceOrder(context.Background(), validRequest())

	var cfe *CreationFailedError
	require.ErrorAs(t, err, &cfe)
	assert.Equal(t, "ch_123", cfe.PaymentRef)
}

func TestGetByUser_NotFound(t *testing.T) {
	svc, _ := newWorkflow(testCart(), approvingGateway())

	_, err := svc.GetByUser(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
