package compensation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATOR - Quarterly and net compensation
// =============================================================================

var two = decimal.NewFromInt(2)

// ComputeQuarter returns max(0, (noFees + addedValue - stateContribution) / 2).
// Compensation is never negative.
func ComputeQuarter(noFees, addedValue, stateContribution decimal.Decimal) decimal.Decimal {
	amount := noFees.Add(addedValue).Sub(stateContribution).Div(two)
	if amount.IsPositive() {
		return amount
	}
	return decimal.Zero
}

// ComputeNet returns the sum of the four computed amounts minus the discount.
// The result is NOT clamped: a discount may exceed the earned compensation.
func ComputeNet(q1, q2, q3, q4 QuarterData, discount decimal.Decimal) decimal.Decimal {
	return q1.ComputedAmount.
		Add(q2.ComputedAmount).
		Add(q3.ComputedAmount).
		Add(q4.ComputedAmount).
		Sub(discount)
}

// ParseFigure coerces user input to a number. Blank or non-numeric input
// yields zero; this is a computation helper, not a validator.
// Both "1234.5" and "1234,5" are accepted.
func ParseFigure(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundCurrency rounds to two decimal places, half away from zero.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents converts an amount to whole cents after rounding to two places.
func Cents(d decimal.Decimal) decimal.Decimal {
	return RoundCurrency(d).Shift(2)
}

// FormatCurrency renders an amount with two decimals and a comma separator,
// e.g. 1234.5 -> "1234,50".
func FormatCurrency(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
