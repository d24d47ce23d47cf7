package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/domain"
)

// MemoryOrderRepository keeps orders in a mutex-guarded map. Order
// numbers are unique; Create rejects duplicates rather than relying on
// the caller's pre-check alone.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if strings.EqualFold(existing.Number, o.Number) {
			return &apperr.DuplicateError{Entity: "Order", Field: "number", Value: o.Number}
		}
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order", id)
	}
	return o.Clone(), nil
}

func (r *MemoryOrderRepository) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if strings.EqualFold(o.Number, number) {
			return o.Clone(), nil
		}
	}
	return nil, apperr.NotFound("Order", number)
}

func (r *MemoryOrderRepository) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if strings.EqualFold(o.Number, number) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryOrderRepository) ListByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

// ListByDateRange returns orders created in [from, to], inclusive.
func (r *MemoryOrderRepository) ListByDateRange(_ context.Context, from, to time.Time) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, o := range r.orders {
		if !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

func (r *MemoryOrderRepository) AppendPayment(_ context.Context, orderID string, p domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return apperr.NotFound("Order", orderID)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	o.Payments = append(o.Payments, p)
	return nil
}
