package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-api/internal/domain/product"
)

// --- Mock implementations ---

type mockCartRepo struct {
	byUser  map[string]*Cart
	saveErr error
}

func newCartRepo() *mockCartRepo {
	return &mockCartRepo{byUser: make(map[string]*Cart)}
}

func (m *mockCartRepo) FindByUser(_ context.Context, userID string) (*Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) Save(_ context.Context, c *Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byUser[c.UserID] = c
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, cartID string) error {
	for userID, c := range m.byUser {
		if c.ID == cartID {
			delete(m.byUser, userID)
		}
	}
	return nil
}

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Delete(_ context.Context, _ string) error           { return nil }

// --- Helpers ---

func newProducts(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newTestProduct(id, name, price string) product.Product {
	return product.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Image: "/images/" + id + ".jpg",
	}
}

// checkTotal asserts the cart total matches the sum of its line subtotals.
func checkTotal(t *testing.T, c *Cart) {
	t.Helper()
	want := decimal.Zero
	for _, it := range c.Items {
		want = want.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, want.Equal(c.Total), "total %s != sum of items %s", c.Total, want)
}

// --- Tests ---

func TestAddItem_CreatesCartLazily(t *testing.T) {
	repo := newCartRepo()
	svc := NewService(repo, newProducts(newTestProduct("p1", "Widget", "10.00")))

	c, err := svc.AddItem(context.Background(), "user-1", "p1", 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "Widget", c.Items[0].Name)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("20.00").Equal(c.Total))

	saved, err := repo.FindByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, saved.ID)
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	repo := newCartRepo()
	svc := NewService(repo, newProducts(newTestProduct("p1", "Widget", "10.00")))

	_, err := svc.AddItem(context.Background(), "user-1", "p1", 1)
	require.NoError(t, err)
	c, err := svc.AddItem(context.Background(), "user-1", "p1", 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1, "same product merges into one line")
	assert.Equal(t, 4, c.Items[0].Quantity)
	checkTotal(t, c)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := NewService(newCartRepo(), newProducts())

	_, err := svc.AddItem(context.Background(), "user-1", "missing", 1)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc := NewService(newCartRepo(), newProducts(newTestProduct("p1", "Widget", "10.00")))

	_, err := svc.AddItem(context.Background(), "user-1", "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItem_SnapshotsProductAtAddTime(t *testing.T) {
	products := newProducts(newTestProduct("p1", "Widget", "10.00"))
	svc := NewService(newCartRepo(), products)

	c, err := svc.AddItem(context.Background(), "user-1", "p1", 1)
	require.NoError(t, err)

	// A later catalog price change must not alter the existing line.
	products.byID["p1"].Price = decimal.RequireFromString("42.00")
	products.byID["p1"].Name = "Renamed"

	assert.Equal(t, "Widget", c.Items[0].Name)
	assert.True(t, decimal.RequireFromString("10.00").Equal(c.Items[0].Price))
}

func TestRemoveItem_DropsLineAndRecomputes(t *testing.T) {
	repo := newCartRepo()
	svc := NewService(repo, newProducts(
		newTestProduct("p1", "Widget", "10.00"),
		newTestProduct("p2", "Gadget", "5.00"),
	))

	_, err := svc.AddItem(context.Background(), "user-1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "user-1", "p2", 1)
	require.NoError(t, err)

	c, err := svc.RemoveItem(context.Background(), "user-1", "p1")
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("5.00").Equal(c.Total))
}

func TestRemoveItem_NoCart(t *testing.T) {
	svc := NewService(newCartRepo(), newProducts())

	_, err := svc.RemoveItem(context.Background(), "user-1", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTotalInvariant_RandomishSequence(t *testing.T) {
	repo := newCartRepo()
	svc := NewService(repo, newProducts(
		newTestProduct("p1", "Widget", "10.00"),
		newTestProduct("p2", "Gadget", "5.00"),
		newTestProduct("p3", "Gizmo", "3.33"),
	))
	ctx := context.Background()

	steps := []struct {
		add       bool
		productID string
		qty       int
	}{
		{true, "p1", 2},
		{true, "p2", 1},
		{true, "p3", 5},
		{false, "p2", 0},
		{true, "p1", 1},
		{true, "p2", 4},
		{false, "p1", 0},
		{false, "p3", 0},
	}

	for i, step := range steps {
		var (
			c   *Cart
			err error
		)
		if step.add {
			c, err = svc.AddItem(ctx, "user-1", step.productID, step.qty)
		} else {
			c, err = svc.RemoveItem(ctx, "user-1", step.productID)
		}
		require.NoError(t, err, "step %d", i)
		checkTotal(t, c)
	}
}
