package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
)

// Summary is the billing and stock snapshot shown on dashboards
type Summary struct {
	Outstanding  decimal.Decimal `json:"outstanding"` // sent + overdue totals
	OverdueCount int             `json:"overdue_count"`
	PaidTotal    decimal.Decimal `json:"paid_total"`
	LowStock     []*domain.Stock `json:"low_stock"`
}

// ReportService provides aggregations over invoices and stock
type ReportService interface {
	Summary(ctx context.Context, now time.Time) (*Summary, error)
	RevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error)
}

type reportService struct {
	store             repository.UnitOfWork
	lowStockThreshold int
}

// NewReportService creates a new report service. Stock at or below
// lowStockThreshold is reported as low.
func NewReportService(store repository.UnitOfWork, lowStockThreshold int) ReportService {
	return &reportService{
		store:             store,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *reportService) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	repos := s.store.Repos()

	invoices, err := repos.Invoices.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Outstanding: decimal.Zero,
		PaidTotal:   decimal.Zero,
		LowStock:    make([]*domain.Stock, 0),
	}

	for _, invoice := range invoices {
		switch invoice.Status {
		case domain.InvoiceStatusSent:
			summary.Outstanding = summary.Outstanding.Add(invoice.TotalAmount)
			// Not swept yet but already late
			if invoice.IsOverdueAt(now) {
				summary.OverdueCount++
			}
		case domain.InvoiceStatusOverdue:
			summary.Outstanding = summary.Outstanding.Add(invoice.TotalAmount)
			summary.OverdueCount++
		case domain.InvoiceStatusPaid:
			summary.PaidTotal = summary.PaidTotal.Add(invoice.TotalAmount)
		}
	}

	stocks, err := repos.Stock.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, stock := range stocks {
		if stock.Quantity <= s.lowStockThreshold {
			summary.LowStock = append(summary.LowStock, stock)
		}
	}

	return summary, nil
}

func (s *reportService) RevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	paidStatus := domain.InvoiceStatusPaid
	invoices, err := s.store.Repos().Invoices.List(ctx, &paidStatus)
	if err != nil {
		return nil, err
	}

	revenue := make(map[time.Month]decimal.Decimal)

	// Initialize all months to 0
	for m := time.January; m <= time.December; m++ {
		revenue[m] = decimal.Zero
	}

	for _, invoice := range invoices {
		// Use paid date if available, otherwise use updated date
		paymentDate := invoice.UpdatedAt
		if invoice.PaidDate != nil {
			paymentDate = *invoice.PaidDate
		}

		if paymentDate.Year() == year {
			month := paymentDate.Month()
			revenue[month] = revenue[month].Add(invoice.TotalAmount)
		}
	}

	return revenue, nil
}
