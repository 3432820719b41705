package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary amount to 2 decimal places using
// round-half-away-from-zero on the decimal representation.
// NaN and infinities propagate unchanged; validation belongs upstream.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
