package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkraev/storefront/internal/money"
)

// CartStatus is the lifecycle state of a cart. OPEN carts accept line
// mutations; CONVERTED and ABANDONED are terminal.
type CartStatus string

const (
	CartStatusOpen      CartStatus = "OPEN"
	CartStatusConverted CartStatus = "CONVERTED"
	CartStatusAbandoned CartStatus = "ABANDONED"
)

// Cart holds prospective purchases for a guest session or a registered
// user. UserID == 0 means a guest cart. A cart has at most one line per
// product.
type Cart struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id,omitempty"`
	Status    CartStatus `json:"status"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine is one product in a cart. UnitPrice is frozen at the moment
// the line was added and does not track later catalog price changes.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// Subtotal returns UnitPrice * Quantity at monetary scale.
func (l CartLine) Subtotal() decimal.Decimal {
	return money.Mul(l.UnitPrice, l.Quantity)
}

// IsOpen reports whether the cart still accepts mutations.
func (c *Cart) IsOpen() bool {
	return c.Status == CartStatusOpen
}

// IsGuest reports whether the cart has no owning user.
func (c *Cart) IsGuest() bool {
	return c.UserID == 0
}

// LineFor returns a pointer to the line holding productID, or nil.
func (c *Cart) LineFor(productID int64) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// RemoveLine drops the line for productID, reporting whether it existed.
func (c *Cart) RemoveLine(productID int64) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Total sums the line subtotals; an empty cart totals to zero.
func (c *Cart) Total() decimal.Decimal {
	total := money.Zero()
	for _, l := range c.Lines {
		total = money.Add(total, l.Subtotal())
	}
	return total
}

// Touch refreshes the last-modified timestamp.
func (c *Cart) Touch(now time.Time) {
	c.UpdatedAt = now
}

// Clone returns a deep copy, so staged mutations never leak into the
// stored cart until they are committed.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = make([]CartLine, len(c.Lines))
	copy(cp.Lines, c.Lines)
	return &cp
}
