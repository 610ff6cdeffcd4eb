package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OverdueSweeper periodically promotes late sent invoices to overdue
type OverdueSweeper struct {
	invoices InvoiceService
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewOverdueSweeper creates a sweeper that runs every interval
func NewOverdueSweeper(invoices InvoiceService, interval time.Duration, logger *zap.Logger) *OverdueSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueSweeper{
		invoices: invoices,
		interval: interval,
		logger:   logger.Named("sweeper"),
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (s *OverdueSweeper) Run(ctx context.Context) error {
	s.logger.Info("overdue sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("overdue sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	count, err := s.invoices.SweepOverdue(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("overdue sweep failed", zap.Error(err))
		}
		return
	}
	s.logger.Debug("overdue sweep done", zap.Int64("promoted", count))
}
