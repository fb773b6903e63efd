// Package money keeps all amounts in integer paise so that repeated
// price computations agree to the cent. Conversions to rupees happen
// only at the API edge.
package money

import "fmt"

// FromRupees converts a whole-rupee amount to paise.
func FromRupees(r int64) int64 {
	return r * 100
}

// ToRupees converts paise to a rupee value for JSON responses.
func ToRupees(p int64) float64 {
	return float64(p) / 100
}

// FloorToRupee drops the paise remainder, rounding down to the nearest
// whole rupee.
func FloorToRupee(p int64) int64 {
	return p - p%100
}

// Percent computes pct% of an amount with integer arithmetic.
func Percent(p int64, pct int64) int64 {
	return p * pct / 100
}

// Format renders paise as a display string, e.g. "499.00".
func Format(p int64) string {
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}
