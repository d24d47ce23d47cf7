// Package money implements fixed-scale decimal arithmetic for monetary
// values. Every result is normalized to 2 fractional digits using
// round-half-to-even, so repeated sums do not drift.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits for all monetary values.
const Scale = 2

// ErrDivideByZero is returned by Div when the divisor is zero.
var ErrDivideByZero = errors.New("division by zero")

// Zero is the canonical zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero.RoundBank(Scale)
}

// Normalize rescales an amount to the monetary scale. The zero value of
// decimal.Decimal normalizes to 0.00, which covers absent operands.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

// Add returns a + b, both operands normalized before combining.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return Normalize(a).Add(Normalize(b)).RoundBank(Scale)
}

// Sub returns a - b, both operands normalized before combining.
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return Normalize(a).Sub(Normalize(b)).RoundBank(Scale)
}

// Mul returns amount * quantity.
func Mul(amount decimal.Decimal, quantity int) decimal.Decimal {
	return Normalize(amount).Mul(decimal.NewFromInt(int64(quantity))).RoundBank(Scale)
}

// Div returns amount / divisor rounded to the monetary scale.
func Div(amount, divisor decimal.Decimal) (decimal.Decimal, error) {
	if divisor.IsZero() {
		return decimal.Decimal{}, ErrDivideByZero
	}
	return Normalize(amount).Div(divisor).RoundBank(Scale), nil
}

// PercentOf returns percent% of amount, e.g. PercentOf(150.00, 19) = 28.50.
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return Normalize(amount).Mul(percent).Div(decimal.NewFromInt(100)).RoundBank(Scale)
}

// Sum adds a list of amounts, normalizing each one.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := Zero()
	for _, a := range amounts {
		total = Add(total, a)
	}
	return total
}
