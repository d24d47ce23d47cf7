package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkraev/storefront/internal/config"
	"github.com/mkraev/storefront/internal/domain"
	"github.com/mkraev/storefront/internal/inventory"
	"github.com/mkraev/storefront/internal/repository"
)

// fixture wires the whole service stack over in-memory repositories,
// with no cache attached.
type fixture struct {
	products   *repository.MemoryProductRepository
	categories *repository.MemoryCategoryRepository
	carts      *repository.MemoryCartRepository
	orders     *repository.MemoryOrderRepository
	users      *repository.MemoryUserRepository
	addresses  *repository.MemoryAddressRepository
	ledger     *inventory.Ledger

	catalog  *CatalogService
	cart     *CartService
	checkout *CheckoutService
	user     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		products:   repository.NewMemoryProductRepository(),
		categories: repository.NewMemoryCategoryRepository(),
		carts:      repository.NewMemoryCartRepository(),
		orders:     repository.NewMemoryOrderRepository(),
		users:      repository.NewMemoryUserRepository(),
		addresses:  repository.NewMemoryAddressRepository(),
	}
	f.ledger = inventory.NewLedger(f.products)

	cfg := config.Load()
	locks := NewCartLocks()
	f.catalog = NewCatalogService(f.products, f.categories, f.ledger)
	f.cart = NewCartService(f.carts, f.products, f.users, f.ledger, nil, locks, cfg.MaxLineQuantity)
	f.checkout = NewCheckoutService(f.orders, f.carts, f.products, f.users, f.addresses, f.ledger, nil, locks, cfg)
	f.user = NewUserService(f.users, f.addresses, cfg.MaxAddressesPerUser)
	return f
}

func (f *fixture) seedProduct(t *testing.T, sku, name, price string, stock int) *domain.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), sku, name, "", decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	return p
}

func (f *fixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.user.Register(context.Background(), email, "Test", "User", "")
	require.NoError(t, err)
	return u
}

func (f *fixture) seedAddress(t *testing.T, userID int64) *domain.Address {
	t.Helper()
	a, err := f.user.AddAddress(context.Background(), userID, domain.Address{
		Line1:      fmt.Sprintf("Calle %d", userID),
		City:       "Medellin",
		PostalCode: "050001",
		Country:    "CO",
	})
	require.NoError(t, err)
	return a
}
