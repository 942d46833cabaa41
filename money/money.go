/*
Package money provides currency-safe amounts and the closed status vocabularies
used throughout the booking engine.

PURPOSE:
  Payment processors report amounts and statuses as loosely-typed strings.
  This package is the boundary where that data is normalized into precise,
  closed types before any ledger or refund logic runs.

KEY CONCEPTS IN THIS FILE (money.go):
  - Amount: A decimal quantity paired with a currency code
  - Minor units: integer cents, used for exact refund/charge dispatch

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Defensiveness: Malformed amounts parse to zero, never to an error that
     could crash a summarization over dirty upstream data
  3. Normalization at the boundary: raw provider strings are folded into
     closed enumerations here, and nowhere else

SEE ALSO:
  - status.go: Transaction kind/status vocabularies and normalization
  - ledger package: Consumes Amounts when summarizing transactions
*/
package money

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Decimal quantity with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal
	Currency string
}

func NewAmount(value float64, currency string) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewAmountFromInt(value int64, currency string) Amount {
	return Amount{Value: decimal.NewFromInt(value), Currency: currency}
}

// NewAmountFromMinor builds an Amount from integer minor units (cents).
func NewAmountFromMinor(minor int64, currency string) Amount {
	return Amount{Value: decimal.NewFromInt(minor).Shift(-2), Currency: currency}
}

// ParseAmount converts a raw amount string into an Amount.
// Malformed input yields a zero amount: the summarizer must never fail
// on dirty processor data.
func ParseAmount(s string, currency string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero(currency)
	}
	return Amount{Value: d, Currency: currency}
}

func Zero(currency string) Amount {
	return Amount{Value: decimal.Zero, Currency: currency}
}

func (a Amount) Zero() Amount              { return Amount{Value: decimal.Zero, Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Currency: a.Currency} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }

// Min returns the smaller of the two amounts.
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of the two amounts.
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ClampZero floors the amount at zero. Used wherever raw data could produce
// an impossible negative remainder (double-counted refunds).
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// MinorUnits returns the amount as integer minor units (cents), rounded
// half-up. Refund and charge instructions never carry fractional cents.
func (a Amount) MinorUnits() int64 {
	return a.Value.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Float64 returns a lossy float representation for display/DTO conversion.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string {
	return a.Value.StringFixed(2) + " " + a.Currency
}
