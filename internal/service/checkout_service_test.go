package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// checkoutSetup builds a user with an address and an OPEN cart holding
// the given quantity of a single product.
func checkoutSetup(t *testing.T, f *fixture, price string, stock, quantity int) (*domain.User, *domain.Address, *domain.Cart, *domain.Product) {
	t.Helper()
	ctx := context.Background()

	product := f.seedProduct(t, "SKU-1", "Keyboard", price, stock)
	user := f.seedUser(t, "ana@example.com")
	address := f.seedAddress(t, user.ID)

	cart, err := f.cart.OpenCartForUser(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, cart.ID, product.ID, quantity)
	require.NoError(t, err)
	return user, address, cart, product
}

func TestCheckoutTotalsWithFreeShipping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 3 x 50.00 = 150.00, above the 100.00 free-shipping threshold.
	user, address, cart, _ := checkoutSetup(t, f, "50.00", 10, 3)

	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("150.00").Equal(order.Subtotal), "subtotal %s", order.Subtotal)
	assert.True(t, decimal.RequireFromString("28.50").Equal(order.Tax), "tax %s", order.Tax)
	assert.True(t, order.ShippingCost.IsZero(), "shipping %s", order.ShippingCost)
	assert.True(t, decimal.RequireFromString("178.50").Equal(order.Total), "total %s", order.Total)
}

func TestCheckoutTotalsBelowThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 2 x 25.00 = 50.00: shipping is 5.00 + 2% of 50.00 = 6.00.
	user, address, cart, _ := checkoutSetup(t, f, "25.00", 10, 2)

	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("50.00").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("9.50").Equal(order.Tax))
	assert.True(t, decimal.RequireFromString("6.00").Equal(order.ShippingCost))
	assert.True(t, decimal.RequireFromString("65.50").Equal(order.Total))
}

func TestCheckoutTotalIsSumOfParts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, _ := checkoutSetup(t, f, "33.33", 10, 2)

	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	sum := order.Subtotal.Add(order.Tax).Add(order.ShippingCost)
	assert.True(t, order.Total.Equal(sum), "total %s != %s", order.Total, sum)
}

func TestCheckoutConvertsCartAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, product := checkoutSetup(t, f, "50.00", 10, 3)

	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	converted, err := f.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusConverted, converted.Status)

	after, err := f.products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, after.StockQty)

	require.Len(t, order.Lines, 1)
	assert.True(t, decimal.RequireFromString("50.00").Equal(order.Lines[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("150.00").Equal(order.Lines[0].LineTotal))

	// A converted cart cannot be checked out again.
	_, err = f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCheckoutOrderNumberFormat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, _ := checkoutSetup(t, f, "50.00", 10, 1)

	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, order.Number)
	assert.True(t, strings.HasPrefix(order.Number, "ORD-"))

	byNumber, err := f.checkout.GetOrderByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestCheckoutPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, product := checkoutSetup(t, f, "50.00", 10, 3)

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.checkout.Checkout(ctx, 999, cart.ID, address.ID, address.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown cart", func(t *testing.T) {
		_, err := f.checkout.Checkout(ctx, user.ID, "no-such-cart", address.ID, address.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := f.checkout.Checkout(ctx, user.ID, cart.ID, 999, address.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("address owned by someone else", func(t *testing.T) {
		other := f.seedUser(t, "ben@example.com")
		otherAddr := f.seedAddress(t, other.ID)
		_, err := f.checkout.Checkout(ctx, user.ID, cart.ID, otherAddr.ID, address.ID)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("cart owned by someone else", func(t *testing.T) {
		other, err := f.user.GetUserByEmail(ctx, "ben@example.com")
		require.NoError(t, err)
		otherAddr := f.seedAddress(t, other.ID)
		_, err = f.checkout.Checkout(ctx, other.ID, cart.ID, otherAddr.ID, otherAddr.ID)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := f.cart.RemoveItem(ctx, cart.ID, product.ID)
		require.NoError(t, err)
		_, err = f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestCheckoutRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, product := checkoutSetup(t, f, "50.00", 10, 1)

	_, err := f.catalog.Deactivate(ctx, product.ID)
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	open, err := f.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusOpen, open.Status, "failed checkout leaves the cart OPEN")
}

func TestCheckoutAllOrNothingOnStockShortfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 10)
	p2 := f.seedProduct(t, "SKU-2", "Mouse", "5.00", 10)
	user := f.seedUser(t, "ana@example.com")
	address := f.seedAddress(t, user.ID)

	cart, err := f.cart.OpenCartForUser(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, cart.ID, p1.ID, 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, cart.ID, p2.ID, 5)
	require.NoError(t, err)

	// Stock on p2 drains after the cart was built.
	_, err = f.catalog.SetStock(ctx, p2.ID, 1)
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	p1After, err := f.products.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p1After.StockQty, "no stock moved for any product")

	open, err := f.carts.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusOpen, open.Status)

	orders, err := f.checkout.ListOrdersByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders, "no order was created")
}

func TestCheckoutConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 1)

	const buyers = 8
	type attempt struct {
		userID int64
		cartID string
		addrID int64
	}
	attempts := make([]attempt, 0, buyers)
	for i := 0; i < buyers; i++ {
		u := f.seedUser(t, strings.ToLower("buyer"+string(rune('a'+i))+"@example.com"))
		a := f.seedAddress(t, u.ID)
		c, err := f.cart.OpenCartForUser(ctx, u.ID)
		require.NoError(t, err)
		_, err = f.cart.AddItem(ctx, c.ID, product.ID, 1)
		require.NoError(t, err)
		attempts = append(attempts, attempt{userID: u.ID, cartID: c.ID, addrID: a.ID})
	}

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			_, err := f.checkout.Checkout(ctx, a.userID, a.cartID, a.addrID, a.addrID)
			results <- err
		}(a)
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, apperr.ErrInsufficientStock)
			stockFailures++
		}
	}
	assert.Equal(t, 1, successes, "exactly one buyer gets the last unit")
	assert.Equal(t, buyers-1, stockFailures)

	after, err := f.products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.StockQty, "stock never goes negative")
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, _ := checkoutSetup(t, f, "50.00", 10, 3)

	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	updated, err := f.checkout.RecordPayment(ctx, order.ID, order.Total, "CARD", domain.PaymentStatusCompleted)
	require.NoError(t, err)

	require.Len(t, updated.Payments, 1)
	assert.NotEmpty(t, updated.Payments[0].ID)
	assert.Equal(t, domain.PaymentStatusCompleted, updated.Payments[0].Status)
	assert.True(t, updated.Total.Equal(order.Total), "payments never change the order's totals")

	_, err = f.checkout.RecordPayment(ctx, order.ID, decimal.RequireFromString("-1"), "CARD", domain.PaymentStatusCompleted)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.checkout.RecordPayment(ctx, order.ID, order.Total, "CARD", domain.PaymentStatus("WEIRD"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.checkout.RecordPayment(ctx, "no-such-order", order.Total, "CARD", domain.PaymentStatusPending)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListOrdersByDateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, _ := checkoutSetup(t, f, "50.00", 10, 1)

	before := time.Now().Add(-time.Minute)
	order, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)
	after := time.Now().Add(time.Minute)

	orders, err := f.checkout.ListOrdersByDateRange(ctx, before, after)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	// A window that ends before the order was placed.
	orders, err = f.checkout.ListOrdersByDateRange(ctx, before.Add(-time.Hour), before)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.checkout.ListOrdersByDateRange(ctx, after, before)
	assert.ErrorIs(t, err, apperr.ErrValidation, "inverted windows are rejected")
}

func TestListOrdersByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, address, cart, product := checkoutSetup(t, f, "50.00", 10, 1)

	first, err := f.checkout.Checkout(ctx, user.ID, cart.ID, address.ID, address.ID)
	require.NoError(t, err)

	// A fresh cart for a second order.
	cart2, err := f.cart.OpenCartForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, cart.ID, cart2.ID)
	_, err = f.cart.AddItem(ctx, cart2.ID, product.ID, 2)
	require.NoError(t, err)
	second, err := f.checkout.Checkout(ctx, user.ID, cart2.ID, address.ID, address.ID)
	require.NoError(t, err)

	orders, err := f.checkout.ListOrdersByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	ids := []string{orders[0].ID, orders[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}
