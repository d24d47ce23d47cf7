package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// MemoryCartRepository keeps carts in a mutex-guarded map with deep
// copies on every read and write.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*domain.Cart)}
}

func (r *MemoryCartRepository) Create(_ context.Context, c *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.carts[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCartRepository) Update(_ context.Context, c *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[c.ID]; !ok {
		return apperr.NotFound("Cart", c.ID)
	}
	r.carts[c.ID] = c.Clone()
	return nil
}

// UpdateBoth writes two carts under one lock acquisition, so the merge
// outcome (lines moved, guest cart abandoned) becomes visible as a
// single change.
func (r *MemoryCartRepository) UpdateBoth(_ context.Context, a, b *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[a.ID]; !ok {
		return apperr.NotFound("Cart", a.ID)
	}
	if _, ok := r.carts[b.ID]; !ok {
		return apperr.NotFound("Cart", b.ID)
	}
	r.carts[a.ID] = a.Clone()
	r.carts[b.ID] = b.Clone()
	return nil
}

func (r *MemoryCartRepository) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.carts[id]
	if !ok {
		return nil, apperr.NotFound("Cart", id)
	}
	return c.Clone(), nil
}

func (r *MemoryCartRepository) GetOpenByUser(_ context.Context, userID int64) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.carts {
		if c.UserID == userID && c.Status == domain.CartStatusOpen {
			return c.Clone(), nil
		}
	}
	return nil, apperr.NotFound("Cart", userID)
}
