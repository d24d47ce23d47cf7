// Package inventory tracks product stock. All stock mutations in the
// system must go through a single Ledger, which serializes them so a
// check-then-write sequence cannot interleave with another writer.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkraev/storefront/internal/apperr"
	"github.com/mkraev/storefront/internal/repository"
)

// Movement is one product's quantity within a batch operation.
type Movement struct {
	ProductID int64
	Quantity  int
}

// Ledger guards stock counters stored in the product repository.
type Ledger struct {
	mu       sync.Mutex
	products repository.ProductRepository
}

func NewLedger(products repository.ProductRepository) *Ledger {
	return &Ledger{products: products}
}

// HasSufficient reports whether the product's current stock covers the
// requested quantity.
func (l *Ledger) HasSufficient(ctx context.Context, productID int64, quantity int) (bool, error) {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return p.HasStock(quantity), nil
}

// Decrement removes quantity units from one product's stock. It fails
// with an insufficient-stock error and leaves the counter unchanged if
// the stock cannot cover the quantity.
func (l *Ledger) Decrement(ctx context.Context, productID int64, quantity int) error {
	return l.DecrementAll(ctx, []Movement{{ProductID: productID, Quantity: quantity}})
}

// DecrementAll removes stock for every movement, or for none. The first
// pass validates every product under the ledger lock; only when all of
// them pass does the second pass write the new counters.
func (l *Ledger) DecrementAll(ctx context.Context, movements []Movement) error {
	for _, m := range movements {
		if m.Quantity < 1 {
			return apperr.Validation("quantity", m.Quantity, "must be positive")
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[int64]int, len(movements))
	for _, m := range movements {
		p, err := l.products.GetByID(ctx, m.ProductID)
		if err != nil {
			return err
		}
		remaining, ok := staged[m.ProductID]
		if !ok {
			remaining = p.StockQty
		}
		if remaining < m.Quantity {
			return &apperr.InsufficientStockError{
				ProductID: m.ProductID,
				SKU:       p.SKU,
				Requested: m.Quantity,
				Available: remaining,
			}
		}
		staged[m.ProductID] = remaining - m.Quantity
	}

	for id, qty := range staged {
		if err := l.products.UpdateStock(ctx, id, qty); err != nil {
			return fmt.Errorf("write stock for product %d: %w", id, err)
		}
	}
	return nil
}

// IncrementAll restores stock for every movement, e.g. to compensate a
// failed commit after a successful decrement.
func (l *Ledger) IncrementAll(ctx context.Context, movements []Movement) error {
	for _, m := range movements {
		if err := l.Increment(ctx, m.ProductID, m.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Increment adds quantity units to one product's stock (restock or
// return). Quantity must be at least 1.
func (l *Ledger) Increment(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity", quantity, "must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	return l.products.UpdateStock(ctx, productID, p.StockQty+quantity)
}

// SetStock overwrites a product's counter, for seeding and admin
// corrections. The new value must be non-negative.
func (l *Ledger) SetStock(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return apperr.Validation("quantity", quantity, "cannot be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.products.UpdateStock(ctx, productID, quantity)
}
