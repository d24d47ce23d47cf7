package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// MemoryCategoryRepository keeps the category tree in a mutex-guarded
// map with sequence-assigned IDs. Slug uniqueness is case-insensitive.
type MemoryCategoryRepository struct {
	mu         sync.RWMutex
	categories map[int64]*domain.Category
	nextID     int64
}

func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{categories: make(map[int64]*domain.Category)}
}

func (r *MemoryCategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if strings.EqualFold(existing.Slug, c.Slug) {
			return &apperr.DuplicateError{Entity: "Category", Field: "slug", Value: c.Slug}
		}
	}

	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	} else if c.ID > r.nextID {
		r.nextID = c.ID
	}

	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *MemoryCategoryRepository) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, apperr.NotFound("Category", id)
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryCategoryRepository) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if strings.EqualFold(c.Slug, slug) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("Category", slug)
}

func (r *MemoryCategoryRepository) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if strings.EqualFold(c.Slug, slug) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryCategoryRepository) ListRoots(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Category, 0)
	for _, c := range r.categories {
		if c.IsRoot() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *MemoryCategoryRepository) ListChildren(_ context.Context, parentID int64) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Category, 0)
	for _, c := range r.categories {
		if c.ParentID == parentID {
			out = append(out, *c)
		}
	}
	return out, nil
}
