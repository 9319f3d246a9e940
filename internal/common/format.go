package common

import (
	"fmt"
	"math"
)

// FormatMarketCap renders a market cap in trillions, billions, or millions.
func FormatMarketCap(v float64) string {
	switch {
	case v <= 0 || math.IsNaN(v):
		return "N/A"
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// FormatPercent renders a fractional value (0.0345) as a percentage ("3.45%").
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatRatio renders a valuation ratio, using N/A for missing or
// non-positive values (negative P/E means negative earnings, not a ratio).
func FormatRatio(v float64) string {
	if v <= 0 || math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatSigned renders a value with an explicit sign, for price changes.
func FormatSigned(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f", v)
}
