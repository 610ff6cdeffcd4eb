package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
)

// InvoiceSettings holds the defaults applied to new invoices
type InvoiceSettings struct {
	NumberPrefix   string
	DefaultDueDays int
	DefaultTerms   string
}

// DefaultInvoiceSettings returns the settings used when none are configured
func DefaultInvoiceSettings() InvoiceSettings {
	return InvoiceSettings{
		NumberPrefix:   "INV",
		DefaultDueDays: 30,
		DefaultTerms:   "Payment due within 30 days of invoice date.",
	}
}

// CreateInvoiceInput is the command for invoicing an order. A zero Amount
// bills the order total.
type CreateInvoiceInput struct {
	OrderID  int64           `json:"order_id"`
	UserID   int64           `json:"user_id"`
	Amount   decimal.Decimal `json:"amount"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Notes    string          `json:"notes,omitempty"`
	Terms    string          `json:"terms,omitempty"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
}

// InvoicePatch holds the invoice fields a caller may change. The total is
// always recomputed and cannot be set.
type InvoicePatch struct {
	Tax      *decimal.Decimal      `json:"tax,omitempty"`
	Discount *decimal.Decimal      `json:"discount,omitempty"`
	Status   *domain.InvoiceStatus `json:"status,omitempty"`
	Notes    *string               `json:"notes,omitempty"`
	Terms    *string               `json:"terms,omitempty"`
	DueDate  *time.Time            `json:"due_date,omitempty"`
	PaidDate *time.Time            `json:"paid_date,omitempty"`
}

// InvoiceService manages the invoice lifecycle
type InvoiceService interface {
	// CreateInvoice issues the single invoice for an order and completes the order
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error)

	// UpdateInvoice applies a patch. Paid invoices cannot be changed.
	UpdateInvoice(ctx context.Context, id int64, patch InvoicePatch) (*domain.Invoice, error)

	// MarkPaid records payment now
	MarkPaid(ctx context.Context, id int64) (*domain.Invoice, error)

	// DeleteInvoice removes an unpaid invoice. The order stays completed.
	DeleteInvoice(ctx context.Context, id int64) error

	// SweepOverdue moves sent invoices due before now to overdue
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)

	// GetOverdue sweeps, then returns sent or draft invoices due before now
	GetOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error)

	// ListOverdue is GetOverdue without the sweep
	ListOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error)

	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID int64) (*domain.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	GetDetails(ctx context.Context, id int64) (*domain.InvoiceDetails, error)
	ListInvoices(ctx context.Context, status *domain.InvoiceStatus) ([]*domain.Invoice, error)
}

type invoiceService struct {
	store    repository.UnitOfWork
	settings InvoiceSettings
	logger   *zap.Logger
	now      func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(store repository.UnitOfWork, settings InvoiceSettings, logger *zap.Logger) InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &invoiceService{
		store:    store,
		settings: settings,
		logger:   logger.Named("invoices"),
		now:      time.Now,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error) {
	if in.OrderID <= 0 {
		return nil, invalid(errors.New("order ID is required"))
	}
	if in.UserID <= 0 {
		return nil, invalid(errors.New("user ID is required"))
	}

	now := s.now()
	var invoice *domain.Invoice

	err := s.store.Within(ctx, func(r *repository.Repos) error {
		order, err := r.Orders.GetByID(ctx, in.OrderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound, in.OrderID)
		}
		if !order.HasInvoiceableStatus() {
			return fmt.Errorf("%w: order %d is %s", ErrInvalidTransition, order.ID, order.Status)
		}

		_, err = r.Invoices.GetByOrderID(ctx, order.ID)
		if err == nil {
			return fmt.Errorf("%w: order %d", ErrOrderAlreadyInvoiced, order.ID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if _, err := r.Users.GetByID(ctx, in.UserID); err != nil {
			return notFound(err, ErrUserNotFound, in.UserID)
		}

		amount := in.Amount
		if amount.IsZero() {
			amount = order.TotalAmount
		}

		number := domain.GenerateInvoiceNumber(s.settings.NumberPrefix, now)
		invoice = domain.NewInvoice(number, order.ID, in.UserID, amount, in.Tax, in.Discount, now)
		invoice.Notes = in.Notes
		invoice.Terms = in.Terms
		if invoice.Terms == "" {
			invoice.Terms = s.settings.DefaultTerms
		}
		invoice.DueDate = in.DueDate
		if invoice.DueDate == nil {
			due := now.AddDate(0, 0, s.settings.DefaultDueDays)
			invoice.DueDate = &due
		}

		if err := invoice.Validate(); err != nil {
			return invalid(err)
		}

		if err := r.Invoices.Create(ctx, invoice); err != nil {
			switch {
			case db.IsUniqueViolation(err, "invoices.order_id"):
				return fmt.Errorf("%w: order %d", ErrOrderAlreadyInvoiced, order.ID)
			case db.IsUniqueViolation(err, "invoices.invoice_number"):
				return fmt.Errorf("%w: %s", ErrInvoiceNumberCollision, number)
			}
			return err
		}

		order.Status = domain.OrderStatusCompleted
		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("order_id", invoice.OrderID),
		zap.Stringer("total", invoice.TotalAmount),
	)
	return invoice, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id int64, patch InvoicePatch) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		invoice, err = r.Invoices.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrInvoiceNotFound, id)
		}
		if invoice.IsPaid() {
			return fmt.Errorf("%w: %s", ErrInvoiceImmutable, invoice.InvoiceNumber)
		}

		if err := applyInvoicePatch(invoice, patch, s.now()); err != nil {
			return err
		}

		if err := invoice.Validate(); err != nil {
			return invalid(err)
		}
		return r.Invoices.Update(ctx, invoice)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("invoice updated",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("status", string(invoice.Status)),
	)
	return invoice, nil
}

func applyInvoicePatch(invoice *domain.Invoice, patch InvoicePatch, now time.Time) error {
	if patch.Tax != nil {
		invoice.Tax = *patch.Tax
	}
	if patch.Discount != nil {
		invoice.Discount = *patch.Discount
	}
	if patch.Tax != nil || patch.Discount != nil {
		invoice.CalculateTotal()
	}
	if patch.Notes != nil {
		invoice.Notes = *patch.Notes
	}
	if patch.Terms != nil {
		invoice.Terms = *patch.Terms
	}
	if patch.DueDate != nil {
		invoice.DueDate = patch.DueDate
	}

	next := invoice.Status
	if patch.Status != nil {
		next = *patch.Status
		if !next.Valid() {
			return invalid(fmt.Errorf("unknown invoice status %q", next))
		}
	}
	if patch.PaidDate != nil {
		if patch.Status != nil && next != domain.InvoiceStatusPaid {
			return invalid(fmt.Errorf("paid date cannot be set on a %s invoice", next))
		}
		next = domain.InvoiceStatusPaid
	}

	if next != invoice.Status {
		if !invoice.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, invoice.Status, next)
		}
		if next == domain.InvoiceStatusPaid {
			paid := now
			if patch.PaidDate != nil {
				paid = *patch.PaidDate
			}
			invoice.MarkPaid(paid)
		}
		invoice.Status = next
	}

	invoice.UpdatedAt = now
	return nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, id int64) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		invoice, err = r.Invoices.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrInvoiceNotFound, id)
		}
		if invoice.Status.IsTerminal() {
			if invoice.IsPaid() {
				return fmt.Errorf("%w: %s", ErrInvoiceAlreadyPaid, invoice.InvoiceNumber)
			}
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, invoice.Status, domain.InvoiceStatusPaid)
		}

		invoice.MarkPaid(s.now())
		return r.Invoices.Update(ctx, invoice)
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("invoice paid",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	return invoice, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id int64) error {
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		invoice, err := r.Invoices.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrInvoiceNotFound, id)
		}
		if invoice.IsPaid() {
			return fmt.Errorf("%w: %s", ErrCannotDeletePaid, invoice.InvoiceNumber)
		}
		return r.Invoices.Delete(ctx, id)
	})
	if err != nil {
		return storageError(err)
	}

	s.logger.Info("invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

func (s *invoiceService) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		var err error
		count, err = r.Invoices.MarkOverdue(ctx, now)
		return err
	})
	if err != nil {
		return 0, storageError(err)
	}

	if count > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", count))
	}
	return count, nil
}

func (s *invoiceService) GetOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := s.store.Within(ctx, func(r *repository.Repos) error {
		count, err := r.Invoices.MarkOverdue(ctx, now)
		if err != nil {
			return err
		}
		if count > 0 {
			s.logger.Info("invoices marked overdue", zap.Int64("count", count))
		}

		invoices, err = r.Invoices.ListOverdue(ctx, now)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return invoices, nil
}

func (s *invoiceService) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	return s.store.Repos().Invoices.ListOverdue(ctx, now)
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.store.Repos().Invoices.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound, id)
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByOrder(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	invoice, err := s.store.Repos().Invoices.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound, fmt.Sprintf("order %d", orderID))
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	invoice, err := s.store.Repos().Invoices.GetByNumber(ctx, number)
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound, number)
	}
	return invoice, nil
}

func (s *invoiceService) GetDetails(ctx context.Context, id int64) (*domain.InvoiceDetails, error) {
	details, err := s.store.Repos().Invoices.GetDetails(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound, id)
	}
	return details, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	return s.store.Repos().Invoices.List(ctx, status)
}
