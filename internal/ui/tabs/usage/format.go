package usage

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// formatUSD renders a dollar amount, keeping sub-cent spend visible.
func formatUSD(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("$%.1fK", v/1000)
	case v > 0 && v < 0.01:
		return fmt.Sprintf("$%.4f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// formatTokens abbreviates a token count.
func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// formatCount renders a request count with thousands separators.
func formatCount(n int64) string {
	return humanize.Comma(n)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
