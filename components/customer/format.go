package customer

import "github.com/dustin/go-humanize"

// FormatCurrency renders an amount with two decimals, thousands separators, and
// the currency symbol prefixed (e.g. ₹12,345.60).
func FormatCurrency(symbol string, amount float64) string {
	return symbol + humanize.FormatFloat("#,###.##", roundTo(amount, 2))
}

// FormatCount renders integer counts with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
