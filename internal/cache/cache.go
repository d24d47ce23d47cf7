package cache

import (
	"context"
	"errors"

	"github.com/mkraev/storefront/internal/domain"
)

// CartCache holds recently read carts keyed by cart ID. Consumers treat
// cache failures as misses; the repository stays the source of truth.
type CartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	Set(ctx context.Context, cartID string, cart *domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

var ErrCacheMiss = errors.New("cache miss")
