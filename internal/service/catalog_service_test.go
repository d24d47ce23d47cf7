package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/storefront/internal/apperr"
)

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.catalog.CreateProduct(ctx, "  SKU-1 ", " Keyboard ", "Mechanical", decimal.RequireFromString("49.9"), 10)
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, "SKU-1", p.SKU)
	assert.Equal(t, "Keyboard", p.Name)
	assert.True(t, p.Active)
	assert.Equal(t, "49.90", p.Price.StringFixed(2), "price normalized to two decimals")
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateProduct(ctx, "", "Keyboard", "", decimal.RequireFromString("10.00"), 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.CreateProduct(ctx, "SKU-1", "  ", "", decimal.RequireFromString("10.00"), 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.CreateProduct(ctx, "SKU-1", "Keyboard", "", decimal.RequireFromString("-0.01"), 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.CreateProduct(ctx, "SKU-1", "Keyboard", "", decimal.RequireFromString("10.00"), -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 1)

	_, err := f.catalog.CreateProduct(ctx, "sku-1", "Other", "", decimal.RequireFromString("5.00"), 1)
	assert.ErrorIs(t, err, apperr.ErrDuplicate, "SKU uniqueness is case-insensitive")
}

func TestUpdateProductKeepsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 7)

	updated, err := f.catalog.UpdateProduct(ctx, p.ID, "Keyboard Pro", "New rev", decimal.RequireFromString("15.00"))
	require.NoError(t, err)

	assert.Equal(t, "Keyboard Pro", updated.Name)
	assert.Equal(t, 7, updated.StockQty, "descriptive update never touches the stock counter")
}

func TestDeactivateHidesFromListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 1)
	f.seedProduct(t, "SKU-2", "Mouse", "5.00", 1)

	_, err := f.catalog.Deactivate(ctx, p1.ID)
	require.NoError(t, err)

	active, err := f.catalog.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "SKU-2", active[0].SKU)

	// Still fetchable directly.
	got, err := f.catalog.GetProduct(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 3)

	ok, err := f.catalog.CheckAvailability(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.catalog.CheckAvailability(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.catalog.CheckAvailability(ctx, p.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.CheckAvailability(ctx, 999, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRestockAndSetStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 3)

	after, err := f.catalog.Restock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 8, after.StockQty)

	_, err = f.catalog.Restock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	after, err = f.catalog.SetStock(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, after.StockQty)

	_, err = f.catalog.SetStock(ctx, p.ID, -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCatalogEditsNeverResurrectStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const (
		initialStock = 2000
		decrements   = 1500
		editors      = 4
	)
	p := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", initialStock)

	// Descriptive edits hammer the product while the ledger drains it;
	// every decrement must survive the concurrent writes.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; ; j++ {
				select {
				case <-done:
					return
				default:
				}
				_, err := f.catalog.UpdateProduct(ctx, p.ID, fmt.Sprintf("Keyboard rev %d-%d", i, j), "", decimal.RequireFromString("10.00"))
				assert.NoError(t, err)
			}
		}(i)
	}

	for i := 0; i < decrements; i++ {
		require.NoError(t, f.ledger.Decrement(ctx, p.ID, 1))
	}
	close(done)
	wg.Wait()

	after, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, initialStock-decrements, after.StockQty, "no decrement may be lost to a catalog edit")
}

func TestDeactivateKeepsCounterUnderDecrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "SKU-1", "Keyboard", "10.00", 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			assert.NoError(t, f.ledger.Decrement(ctx, p.ID, 1))
		}
	}()
	_, err := f.catalog.Deactivate(ctx, p.ID)
	require.NoError(t, err)
	wg.Wait()

	after, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, after.Active)
	assert.Equal(t, 5, after.StockQty)
}

func TestSearchByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProduct(t, "SKU-1", "Mechanical Keyboard", "10.00", 1)
	f.seedProduct(t, "SKU-2", "Wireless Mouse", "5.00", 1)

	found, err := f.catalog.SearchByName(ctx, "keyboard")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "SKU-1", found[0].SKU)
}
