package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/apothecary/internal/service"
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %q", what, s)
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD and returns midnight UTC
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// parseItem parses an order line of the form medicineID:quantity[:unitPrice]
func parseItem(s string) (service.OrderItemInput, error) {
	var item service.OrderItemInput

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return item, fmt.Errorf("item %q must be medicine_id:quantity[:unit_price]", s)
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return item, fmt.Errorf("item %q: invalid medicine ID", s)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		return item, fmt.Errorf("item %q: invalid quantity", s)
	}
	item.MedicineID = id
	item.Quantity = qty

	if len(parts) == 3 {
		price, err := decimal.NewFromString(parts[2])
		if err != nil {
			return item, fmt.Errorf("item %q: invalid unit price", s)
		}
		item.UnitPrice = &price
	}
	return item, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
