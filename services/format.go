package services

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD formats an amount as US currency, e.g. "$12,450.75".
// Always exactly 2 decimal places. This is the only place display
// rounding happens; stored totals keep full double precision.
func FormatUSD(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", amount)

	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := "$" + groupThousands(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every 3 digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]

	for len(remaining) > 3 {
		result = remaining[len(remaining)-3:] + "," + result
		remaining = remaining[:len(remaining)-3]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}

	return result
}

// RoundDisplay rounds to 2 decimals for presentation. Never applied
// before a back-solve; compounding rounding error across repeated edits
// is exactly what the raw stored totals avoid.
func RoundDisplay(v float64) float64 {
	return math.Round(v*100) / 100
}
