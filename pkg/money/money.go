// Package money rounds and formats monetary figures for display
// in Brazilian Portuguese conventions (R$ 1.234,56).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Cents rounds a float amount to a two-place decimal.
func Cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Number formats v with grouping and the given number of decimals.
func Number(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), Round(v, int32(decimals)))
}

// BRL formats an amount in reais.
func BRL(v float64) string {
	c := Cents(v)
	abs, _ := c.Abs().Float64()
	s := "R$ " + printer.Sprintf("%.2f", abs)
	if c.IsNegative() {
		return "-" + s
	}
	return s
}

// Pct formats a percentage value (6.5 -> "6,5%").
func Pct(v float64, decimals int) string {
	return Number(v, decimals) + "%"
}
