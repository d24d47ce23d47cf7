// Package repository defines the CRUD-by-identity contracts the
// services depend on, plus in-memory implementations. The interfaces
// are owned here by the consumers, not by any particular storage
// backend.
package repository

import (
	"context"
	"time"

	"github.com/mkraev/storefront/internal/domain"
)

// ProductRepository stores catalog entries. Descriptive fields and the
// stock counter are written through separate operations, so a catalog
// edit can never carry a stale counter over a concurrent stock change.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	UpdateDetails(ctx context.Context, p *domain.Product) error
	UpdateStock(ctx context.Context, id int64, quantity int) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	SearchByName(ctx context.Context, query string) ([]domain.Product, error)
}

// CategoryRepository stores the category tree. A category points at its
// parent; children are found by query, not by a stored back-pointer.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ListRoots(ctx context.Context) ([]domain.Category, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Category, error)
}

// CartRepository stores carts. UpdateBoth commits two carts as one
// atomic write; the merge algorithm depends on it.
type CartRepository interface {
	Create(ctx context.Context, c *domain.Cart) error
	Update(ctx context.Context, c *domain.Cart) error
	UpdateBoth(ctx context.Context, a, b *domain.Cart) error
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetOpenByUser(ctx context.Context, userID int64) (*domain.Cart, error)
}

// OrderRepository stores orders. Orders are write-once; the only
// mutation is appending payment records.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]domain.Order, error)
	AppendPayment(ctx context.Context, orderID string, p domain.Payment) error
}

// UserRepository stores registered users.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AddressRepository stores user addresses.
type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Address, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Address, error)
}
