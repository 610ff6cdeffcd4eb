package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
	"github.com/andy/apothecary/internal/service"
)

// Order handlers

func (s *Server) createOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.CreateOrder(c, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) listOrders(c *gin.Context) {
	var f repository.OrderFilter
	if v := c.Query("customer_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		f.CustomerID = &id
	}
	if v := c.Query("status"); v != "" {
		status := domain.OrderStatus(v)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		f.Status = &status
	}
	list, err := s.orders.ListOrders(c, f)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := s.orders.GetOrder(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) updateOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req service.OrderPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.orders.UpdateOrder(c, id, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if _, err := s.orders.DeleteOrder(c, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Invoice handlers

func (s *Server) createInvoice(c *gin.Context) {
	var req service.CreateInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	inv, err := s.invoices.CreateInvoice(c, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (s *Server) listInvoices(c *gin.Context) {
	var status *domain.InvoiceStatus
	if v := c.Query("status"); v != "" {
		st := domain.InvoiceStatus(v)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &st
	}
	list, err := s.invoices.ListInvoices(c, status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getOverdue(c *gin.Context) {
	list, err := s.invoices.GetOverdue(c, s.now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) sweepOverdue(c *gin.Context) {
	n, err := s.invoices.SweepOverdue(c, s.now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (s *Server) getInvoiceByOrder(c *gin.Context) {
	orderID, err := parseID(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id"})
		return
	}
	inv, err := s.invoices.GetInvoiceByOrder(c, orderID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) getInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	inv, err := s.invoices.GetInvoice(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) updateInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req service.InvoicePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	inv, err := s.invoices.UpdateInvoice(c, id, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) deleteInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.invoices.DeleteInvoice(c, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getInvoiceDetails(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	details, err := s.invoices.GetDetails(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) markPaid(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	inv, err := s.invoices.MarkPaid(c, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Stock and report handlers

func (s *Server) listStock(c *gin.Context) {
	list, err := s.stock.List(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getStock(c *gin.Context) {
	medicineID, err := parseID(c.Param("medicine_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid medicine_id"})
		return
	}
	stock, err := s.stock.Lookup(c, medicineID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

func (s *Server) summary(c *gin.Context) {
	sum, err := s.reports.Summary(c, s.now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
