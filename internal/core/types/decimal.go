// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for stored amounts.
const MoneyScale int32 = 2

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromInt creates a Money value from a whole amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round rounds an amount to MoneyScale digits (half away from zero).
func Round(m Money) Money {
	return m.Round(MoneyScale)
}

// Extend multiplies a unit price by a whole quantity.
func Extend(unitPrice Money, qty int64) Money {
	return unitPrice.Mul(decimal.NewFromInt(qty))
}

// Percent returns pct percent of amount, rounded to MoneyScale.
func Percent(amount, pct Money) Money {
	return Round(amount.Mul(pct).Div(hundred))
}

// Ratio returns part/whole expressed in percent, rounded to MoneyScale.
// A zero whole yields zero.
func Ratio(part, whole Money) Money {
	if whole.IsZero() {
		return decimal.Zero
	}
	return Round(part.Mul(hundred).Div(whole))
}

// MaxZero floors m at zero.
func MaxZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}
