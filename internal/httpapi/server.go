package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/andy/apothecary/internal/service"
)

// Server exposes the order, invoice and stock services over JSON
type Server struct {
	engine   *gin.Engine
	orders   service.OrderService
	invoices service.InvoiceService
	stock    service.StockService
	reports  service.ReportService
	logger   *zap.Logger
	now      func() time.Time
}

// Services groups the dependencies of the HTTP surface
type Services struct {
	Orders   service.OrderService
	Invoices service.InvoiceService
	Stock    service.StockService
	Reports  service.ReportService
}

func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	s := &Server{
		engine:   r,
		orders:   svc.Orders,
		invoices: svc.Invoices,
		stock:    svc.Stock,
		reports:  svc.Reports,
		logger:   logger.Named("http"),
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		orders.POST("", s.createOrder)
		orders.GET("", s.listOrders)
		orders.GET(":id", s.getOrder)
		orders.PATCH(":id", s.updateOrder)
		orders.DELETE(":id", s.deleteOrder)

		invoices := v1.Group("/invoices")
		invoices.POST("", s.createInvoice)
		invoices.GET("", s.listInvoices)
		invoices.GET("overdue", s.getOverdue)
		invoices.POST("sweep", s.sweepOverdue)
		invoices.GET("order/:order_id", s.getInvoiceByOrder)
		invoices.GET(":id", s.getInvoice)
		invoices.PATCH(":id", s.updateInvoice)
		invoices.DELETE(":id", s.deleteInvoice)
		invoices.GET(":id/details", s.getInvoiceDetails)
		invoices.POST(":id/mark-paid", s.markPaid)

		stock := v1.Group("/stock")
		stock.GET("", s.listStock)
		stock.GET(":medicine_id", s.getStock)

		v1.GET("/reports/summary", s.summary)
	}
}

// requestLogger logs one line per request with zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// writeError maps a service error onto a status code and a JSON body
func (s *Server) writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrMedicineNotFound),
		errors.Is(err, service.ErrStockNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrStockExists),
		errors.Is(err, service.ErrOrderAlreadyInvoiced),
		errors.Is(err, service.ErrOrderInvoiced),
		errors.Is(err, service.ErrInvoiceAlreadyPaid),
		errors.Is(err, service.ErrCannotDeletePaid),
		errors.Is(err, service.ErrInvoiceImmutable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvoiceNumberCollision):
		return http.StatusConflict
	case errors.Is(err, service.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
