package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []utils.Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, e utils.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Address: "1 Main St", City: "London", State: "LDN", ZipCode: "12345",
	}
}

func newService(mem *store.Memory, mailer utils.Mailer) *Service {
	s := NewService(mem, decimal.RequireFromString("0.10"), mailer, "https://shop.example/")
	s.Dispatch = func(f func()) { f() }
	return s
}

func TestComputeTotals(t *testing.T) {
	tests := map[string]struct {
		items                  []models.CartItem
		subtotal, tax, total string
	}{
		"single line": {
			items:    []models.CartItem{{Price: 100, Quantity: 1}},
			subtotal: "100", tax: "10", total: "110",
		},
		"rounding": {
			items:    []models.CartItem{{Price: 99.99, Quantity: 1}, {Price: 19.99, Quantity: 3}},
			subtotal: "159.96", tax: "16", total: "175.96",
		},
		"float noise": {
			items:    []models.CartItem{{Price: 0.1, Quantity: 3}},
			subtotal: "0.3", tax: "0.03", total: "0.33",
		},
		"empty": {
			subtotal: "0", tax: "0", total: "0",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := ComputeTotals(tt.items, decimal.RequireFromString("0.1"))
			assert.Equal(t, tt.subtotal, got.Subtotal.String())
			assert.Equal(t, tt.tax, got.Tax.String())
			assert.Equal(t, tt.total, got.Total.String())
		})
	}
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mailer := &fakeMailer{}
	svc := newService(mem, mailer)

	c := cart.New("u1", mem, nil, cart.Options{})
	require.NoError(t, c.AddToCart(ctx, models.CartItem{ID: "1", ProductID: "1", Name: "Thing", Price: 100, Quantity: 1}))

	order, err := svc.Checkout(ctx, "u1", c, shipping())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 100.0, order.Subtotal)
	assert.Equal(t, 10.0, order.Tax)
	assert.Equal(t, 110.0, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "u1", order.UserID)
	require.Len(t, order.Items, 1)

	stored, err := mem.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 110.0, stored.Total)

	// local mirror is cleared, the remote cart keeps its items
	assert.Empty(t, c.Items())
	remote, err := mem.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, remote.Items, 1)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTML, "https://shop.example/orders/"+order.ID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(mem, &fakeMailer{})
	c := cart.New("u1", mem, nil, cart.Options{})

	_, err := svc.Checkout(context.Background(), "u1", c, shipping())
	assert.ErrorIs(t, err, ErrEmptyCart)

	orders, err := mem.ListOrders(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

type failingOrders struct{ *store.Memory }

func (failingOrders) CreateOrder(context.Context, *models.Order) error {
	return errors.New("firestore down")
}

func TestCheckoutStoreFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(failingOrders{mem}, decimal.RequireFromString("0.1"), &fakeMailer{}, "")
	c := cart.New("u1", mem, nil, cart.Options{})
	require.NoError(t, c.AddToCart(ctx, models.CartItem{ID: "1", Price: 5, Quantity: 1}))

	_, err := svc.Checkout(ctx, "u1", c, shipping())
	assert.Error(t, err)
	assert.Len(t, c.Items(), 1)
}

func TestCheckoutMailFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newService(mem, &fakeMailer{err: errors.New("smtp down")})
	c := cart.New("u1", mem, nil, cart.Options{})
	require.NoError(t, c.AddToCart(ctx, models.CartItem{ID: "1", Price: 5, Quantity: 1}))

	_, err := svc.Checkout(ctx, "u1", c, shipping())
	assert.NoError(t, err)
}

func TestGetOrderOwnership(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newService(mem, &fakeMailer{})

	o := &models.Order{UserID: "u1", Status: models.OrderPending}
	require.NoError(t, mem.CreateOrder(ctx, o))

	got, err := svc.GetOrder(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = svc.GetOrder(ctx, "u2", o.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.GetOrder(ctx, "u1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mailer := &fakeMailer{}
	svc := newService(mem, mailer)

	o := &models.Order{UserID: "u1", Status: models.OrderPending, ShippingInfo: shipping()}
	require.NoError(t, mem.CreateOrder(ctx, o))

	got, err := svc.SetStatus(ctx, o.ID, models.OrderShipped, false)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)
	assert.Empty(t, mailer.sent)

	_, err = svc.SetStatus(ctx, o.ID, models.OrderDelivered, true)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "delivered")

	_, err = svc.SetStatus(ctx, "missing", models.OrderShipped, true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
