package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the outcome of a payment attempt against an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Order is the immutable record of a completed purchase. Monetary
// fields never change after creation; only payment records may be
// appended.
type Order struct {
	ID                string          `json:"id"`
	Number            string          `json:"number"`
	UserID            int64           `json:"user_id"`
	ShippingAddressID int64           `json:"shipping_address_id"`
	BillingAddressID  int64           `json:"billing_address_id"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	Total             decimal.Decimal `json:"total"`
	Lines             []OrderLine     `json:"lines"`
	Payments          []Payment       `json:"payments,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// OrderLine is a cart line frozen into an order at checkout time.
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Payment records the outcome of one payment attempt.
type Payment struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Lines = make([]OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	cp.Payments = make([]Payment, len(o.Payments))
	copy(cp.Payments, o.Payments)
	return &cp
}
