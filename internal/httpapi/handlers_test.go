package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/andy/apothecary/internal/db/dbtest"
	"github.com/andy/apothecary/internal/domain"
	"github.com/andy/apothecary/internal/repository"
	"github.com/andy/apothecary/internal/service"
)

type testEnv struct {
	server   *Server
	user     *domain.User
	customer *domain.Customer
	aspirin  *domain.Medicine
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := repository.NewStore(dbtest.Open(t))
	logger := zaptest.NewLogger(t)

	stock := service.NewStockService(store, logger)
	s := NewServer(Services{
		Orders:   service.NewOrderService(store, logger),
		Invoices: service.NewInvoiceService(store, service.DefaultInvoiceSettings(), logger),
		Stock:    stock,
		Reports:  service.NewReportService(store, 10),
	}, logger)

	r := store.Repos()
	user := &domain.User{Username: "pharm"}
	require.NoError(t, r.Users.Create(ctx, user))
	customer := domain.NewCustomer("Jane Doe", "jane@example.com")
	require.NoError(t, r.Customers.Create(ctx, customer))
	aspirin := domain.NewMedicine("Aspirin", decimal.RequireFromString("10"))
	require.NoError(t, r.Medicines.Create(ctx, aspirin))
	_, err := stock.Receive(ctx, service.ReceiveStockInput{MedicineID: aspirin.ID, Quantity: 5})
	require.NoError(t, err)

	return &testEnv{server: s, user: user, customer: customer, aspirin: aspirin}
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestOrderInvoiceFlow(t *testing.T) {
	env := setupServer(t)
	s := env.server

	// create order for 3 of 5
	w := doJSON(t, s, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id":     env.customer.ID,
		"order_medicines": []map[string]any{{"medicine_id": env.aspirin.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order domain.Order
	decode(t, w, &order)
	assert.True(t, decimal.NewFromInt(30).Equal(order.TotalAmount))

	// stock left
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/stock/%d", env.aspirin.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stock domain.Stock
	decode(t, w, &stock)
	assert.Equal(t, 2, stock.Quantity)

	// not enough for a second order
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id":     env.customer.ID,
		"order_medicines": []map[string]any{{"medicine_id": env.aspirin.ID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Aspirin")

	// invoice it
	w = doJSON(t, s, http.MethodPost, "/api/v1/invoices", map[string]any{
		"order_id": order.ID,
		"user_id":  env.user.ID,
		"amount":   "100",
		"tax":      "18",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv domain.Invoice
	decode(t, w, &inv)
	assert.True(t, decimal.NewFromInt(118).Equal(inv.TotalAmount))
	assert.Equal(t, domain.InvoiceStatusSent, inv.Status)

	// second invoice for the same order
	w = doJSON(t, s, http.MethodPost, "/api/v1/invoices", map[string]any{
		"order_id": order.ID,
		"user_id":  env.user.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/invoices/order/%d", order.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/invoices/%d/details", inv.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details domain.InvoiceDetails
	decode(t, w, &details)
	assert.Equal(t, "Jane Doe", details.CustomerName)
	assert.Len(t, details.Lines, 1)

	// order is now completed and locked
	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// pay, then pay again
	w = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/mark-paid", inv.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/mark-paid", inv.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/v1/invoices/%d", inv.ID), map[string]any{"notes": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/v1/invoices/%d", inv.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/invoices?status=paid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var paid []domain.Invoice
	decode(t, w, &paid)
	assert.Len(t, paid, 1)

	w = doJSON(t, s, http.MethodGet, "/api/v1/reports/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteOrderReleasesStock(t *testing.T) {
	env := setupServer(t)
	s := env.server

	w := doJSON(t, s, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id":     env.customer.ID,
		"order_medicines": []map[string]any{{"medicine_id": env.aspirin.ID, "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order domain.Order
	decode(t, w, &order)

	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d", order.ID), map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/stock/%d", env.aspirin.ID), nil)
	var stock domain.Stock
	decode(t, w, &stock)
	assert.Equal(t, 5, stock.Quantity)

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBadRequests(t *testing.T) {
	env := setupServer(t)
	s := env.server

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad id", http.MethodGet, "/api/v1/orders/abc", nil, http.StatusBadRequest},
		{"empty order", http.MethodPost, "/api/v1/orders", map[string]any{"customer_id": env.customer.ID}, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/api/v1/invoices?status=void", nil, http.StatusBadRequest},
		{"unknown customer", http.MethodPost, "/api/v1/orders", map[string]any{
			"customer_id":     999,
			"order_medicines": []map[string]any{{"medicine_id": env.aspirin.ID, "quantity": 1}},
		}, http.StatusNotFound},
		{"unknown invoice", http.MethodGet, "/api/v1/invoices/999", nil, http.StatusNotFound},
		{"overdue list", http.MethodGet, "/api/v1/invoices/overdue", nil, http.StatusOK},
		{"sweep", http.MethodPost, "/api/v1/invoices/sweep", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestNewServerLeavesGinModeAlone(t *testing.T) {
	prev := gin.Mode()
	gin.SetMode(gin.TestMode)
	t.Cleanup(func() { gin.SetMode(prev) })

	NewServer(Services{}, zaptest.NewLogger(t))
	assert.Equal(t, gin.TestMode, gin.Mode())
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", service.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: 1", service.ErrInvoiceNotFound), http.StatusNotFound},
		{&service.InsufficientStockError{MedicineName: "Aspirin"}, http.StatusConflict},
		{service.ErrInvoiceImmutable, http.StatusConflict},
		{fmt.Errorf("%w: busy", service.ErrConcurrencyConflict), http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapErrorToStatus(tt.err), tt.err.Error())
	}
}
