package payment

import (
	"fmt"
	"strings"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies are charged in whole units by the processor.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {}, "MGA": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// NormalizeCurrency upper-cases a three letter ISO 4217 code.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", errs.NewValueIsInvalidErrorWithCause("currency", fmt.Errorf("%q is not an ISO 4217 code", code))
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", errs.NewValueIsInvalidErrorWithCause("currency", fmt.Errorf("%q is not an ISO 4217 code", code))
		}
	}
	return c, nil
}

// IsZeroDecimal reports whether the currency has no minor unit.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]
	return ok
}

func exponent(currency string) int32 {
	if IsZeroDecimal(currency) {
		return 0
	}
	return 2
}

// FromMinorUnits converts a processor amount (cents, or whole units for zero-decimal
// currencies) to Money.
func FromMinorUnits(amount int64, currency string) (kernel.Money, error) {
	return kernel.NewMoney(decimal.New(amount, -exponent(currency)))
}

// ToMinorUnits converts Money to the processor's integer amount, rounding half away
// from zero to the currency's precision.
func ToMinorUnits(amount kernel.Money, currency string) int64 {
	return amount.Decimal().Shift(exponent(currency)).Round(0).IntPart()
}
