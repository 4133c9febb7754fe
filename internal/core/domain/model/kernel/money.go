package kernel

import (
	"fmt"

	"dentallab/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal amount. Arithmetic keeps full precision; rounding to
// two places happens only in String.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney is the additive identity.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// NewMoney validates that amount is not negative.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errs.NewValueIsInvalidErrorWithCause(
			"amount",
			fmt.Errorf("%s is negative", amount.String()),
		)
	}
	return Money{amount: amount}, nil
}

// MustMoney parses a decimal literal and panics on bad input. It is meant for
// static tables and tests.
func MustMoney(literal string) Money {
	m, err := NewMoney(decimal.RequireFromString(literal))
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Decimal exposes the exact amount for persistence and payment normalization.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsEqual(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String renders the amount with two decimals.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// SumMoney adds all amounts.
func SumMoney(amounts ...Money) Money {
	total := ZeroMoney()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
