// Package format holds the presentation helpers applied when a view is
// rendered. Adapters never call them, so chart series stay in raw units.
package format

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NotAvailable is shown for missing or non-finite figures.
const NotAvailable = "N/A"

const (
	DefaultPercentDecimals = 2
	DefaultFixedDecimals   = 4
)

// AsCurrency formats x as US dollars, e.g. 1234.5 -> "$1,234.50".
func AsCurrency(x float64) string {
	if !finite(x) {
		return NotAvailable
	}
	cur := money.New(0, money.USD).Currency()
	minor := decimal.NewFromFloat(x).Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// AsPercentage formats a fraction as a percentage with 2 decimals,
// e.g. 0.0825 -> "8.25%".
func AsPercentage(x float64) string {
	return AsPercentageN(x, DefaultPercentDecimals)
}

// AsPercentageN multiplies x by 100 and rounds half away from zero.
func AsPercentageN(x float64, decimals int) string {
	if !finite(x) {
		return NotAvailable
	}
	return decimal.NewFromFloat(x).Shift(2).StringFixed(int32(decimals)) + "%"
}

// AsFixed formats x with 4 decimals and no unit conversion.
func AsFixed(x float64) string {
	return AsFixedN(x, DefaultFixedDecimals)
}

// AsFixedN formats x with the given number of decimals.
func AsFixedN(x float64, decimals int) string {
	if !finite(x) {
		return NotAvailable
	}
	return decimal.NewFromFloat(x).StringFixed(int32(decimals))
}

// OptionalFixed formats *x with 4 decimals, or NotAvailable when x is nil.
func OptionalFixed(x *float64) string {
	if x == nil {
		return NotAvailable
	}
	return AsFixed(*x)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
