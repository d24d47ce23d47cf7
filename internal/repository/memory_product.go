package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// MemoryProductRepository keeps products in a mutex-guarded map.
// Values are copied on the way in and out, so callers can stage
// mutations without touching stored state.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[int64]*domain.Product)}
}

func (r *MemoryProductRepository) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if strings.EqualFold(existing.SKU, p.SKU) {
			return &apperr.DuplicateError{Entity: "Product", Field: "sku", Value: p.SKU}
		}
	}

	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	} else if p.ID > r.nextID {
		r.nextID = p.ID
	}

	cp := *p
	r.products[p.ID] = &cp
	return nil
}

// UpdateDetails writes the descriptive fields only; the stored stock
// counter is preserved no matter what the passed product carries.
func (r *MemoryProductRepository) UpdateDetails(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[p.ID]
	if !ok {
		return apperr.NotFound("Product", p.ID)
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.Price = p.Price
	stored.Active = p.Active
	stored.CategoryID = p.CategoryID
	return nil
}

// UpdateStock writes the stock counter only.
func (r *MemoryProductRepository) UpdateStock(_ context.Context, id int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[id]
	if !ok {
		return apperr.NotFound("Product", id)
	}
	stored.StockQty = quantity
	return nil
}

func (r *MemoryProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("Product", id)
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryProductRepository) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if strings.EqualFold(p.SKU, sku) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("Product", sku)
}

func (r *MemoryProductRepository) ExistsBySKU(_ context.Context, sku string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if strings.EqualFold(p.SKU, sku) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryProductRepository) ListActive(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *MemoryProductRepository) ListByCategory(_ context.Context, categoryID int64) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range r.products {
		if p.CategoryID == categoryID && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *MemoryProductRepository) SearchByName(_ context.Context, query string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]domain.Product, 0)
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, *p)
		}
	}
	return out, nil
}
