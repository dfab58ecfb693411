package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/apperror"
	"partsflow/internal/infrastructure/http/v1/handlers"
	"partsflow/pkg/logger"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) (*apiClient, *apptest.Brakes) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := apptest.NewBrakes(t, false)
	router := NewRouter(RouterConfig{
		Services: b.Services,
		Logger:   logger.NewNop(),
	})
	return &apiClient{t: t, router: router}, b
}

func (a *apiClient) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestRouter_Health(t *testing.T) {
	api, _ := newAPI(t)

	w, body := api.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = api.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["checks"].(map[string]any)["storage"])
}

func TestRouter_HealthReadyFailingProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b := apptest.NewBrakes(t, false)
	router := NewRouter(RouterConfig{
		Services: b.Services,
		Logger:   logger.NewNop(),
		HealthChecks: []handlers.HealthCheck{{
			Name:  "redis",
			Probe: func(context.Context) error { return errors.New("connection refused") },
		}},
	})
	api := &apiClient{t: t, router: router}

	w, body := api.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "unhealthy: connection refused", body["checks"].(map[string]any)["redis"])
}

func TestRouter_OrderToCash(t *testing.T) {
	api, b := newAPI(t)

	w, order := api.do(http.MethodPost, "/api/v1/sales-orders", map[string]any{
		"customerId": b.Customer.ID,
		"lines":      []map[string]any{{"itemId": b.Item.ID, "quantity": 120}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", order["status"])
	orderID := order["id"].(string)

	t.Run("availability reflects the reservation", func(t *testing.T) {
		w, avail := api.do(http.MethodGet, "/api/v1/stock/availability/"+b.Item.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 150, avail["quantity"])
		assert.EqualValues(t, 120, avail["reservedQty"])
		assert.EqualValues(t, 30, avail["availableQty"])
	})

	t.Run("reservations are listed per order", func(t *testing.T) {
		w, body := api.do(http.MethodGet, "/api/v1/sales-orders/"+orderID+"/reservations", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, body["items"], 2)
	})

	t.Run("shortage is rejected", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/v1/sales-orders", map[string]any{
			"customerId": b.Customer.ID,
			"lines":      []map[string]any{{"itemId": b.Item.ID, "quantity": 31}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apperror.CodeInsufficientStock, body["code"])
	})

	w, do := api.do(http.MethodPost, "/api/v1/delivery-orders", map[string]any{"salesOrderId": orderID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "picking", do["status"])

	w, do = api.do(http.MethodPost, "/api/v1/delivery-orders/"+do["id"].(string)+"/picked", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "picked", do["status"])

	w, order = api.do(http.MethodGet, "/api/v1/sales-orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fulfilled", order["status"])

	w, inv := api.do(http.MethodPost, "/api/v1/invoices", map[string]any{"salesOrderId": orderID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "unpaid", inv["status"])
	assert.Equal(t, "unpaid", inv["effectiveStatus"])
	assert.Equal(t, "12000000", inv["grandTotal"])
	assert.Equal(t, "10300000", inv["hpp"])

	t.Run("second invoice is a duplicate", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/v1/invoices", map[string]any{"salesOrderId": orderID})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperror.CodeDuplicateInvoice, body["code"])
	})

	invoiceID := inv["id"].(string)
	w, paid := api.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"invoiceId": invoiceID,
		"amount":    "12000000",
		"method":    "bank_transfer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	settled := paid["invoice"].(map[string]any)
	assert.Equal(t, "paid", settled["status"])
	assert.Equal(t, "0", settled["remainingAmount"])

	w, body := api.do(http.MethodGet, "/api/v1/invoices/"+invoiceID+"/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["items"], 1)
}

func TestRouter_Validation(t *testing.T) {
	api, b := newAPI(t)

	t.Run("malformed id", func(t *testing.T) {
		w, body := api.do(http.MethodGet, "/api/v1/sales-orders/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeValidation, body["code"])
	})

	t.Run("unknown order", func(t *testing.T) {
		w, body := api.do(http.MethodGet, "/api/v1/sales-orders/"+b.Item.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperror.CodeNotFound, body["code"])
	})

	t.Run("empty lines", func(t *testing.T) {
		w, body := api.do(http.MethodPost, "/api/v1/sales-orders", map[string]any{
			"customerId": b.Customer.ID,
			"lines":      []map[string]any{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeValidation, body["code"])
	})

	t.Run("bad status filter", func(t *testing.T) {
		w, _ := api.do(http.MethodGet, "/api/v1/sales-orders?status=shipped", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_ListAndCancel(t *testing.T) {
	api, b := newAPI(t)
	first := b.Order(t, 10)
	b.Order(t, 5)

	w, body := api.do(http.MethodGet, "/api/v1/sales-orders?customerId="+b.Customer.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["totalCount"])

	w, cancelled := api.do(http.MethodPost, "/api/v1/sales-orders/"+first.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", cancelled["status"])

	w, body = api.do(http.MethodGet, "/api/v1/sales-orders?status=cancelled", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["totalCount"])

	w, avail := api.do(http.MethodGet, "/api/v1/stock/availability/"+b.Item.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 145, avail["availableQty"])
}
