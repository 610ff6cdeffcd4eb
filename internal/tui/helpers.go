package tui

import (
	"time"

	"github.com/shopspring/decimal"
)

// formatMoney formats money as "$X,XXX.XX" with comma separators
func formatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	s := amount.StringFixed(2)

	// Split at decimal point
	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	// Add commas to integer part
	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	prefix := "$"
	if negative {
		prefix = "-$"
	}
	return prefix + string(result) + decPart
}

// formatDate renders an optional date, "-" when unset
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("Jan 02, 2006")
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
