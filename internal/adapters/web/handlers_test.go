package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-backoffice/internal/app"
	"sales-backoffice/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService embeds the interface so tests only implement what they exercise.
type fakeService struct {
	app.ApplicationService
	healthErr   error
	quotation   app.CreateQuotationRequest
	quoteErr    error
	orderErr    error
	setStock    app.SetStockRequest
	deletedRef  string
	deletedItem int
	panicOnList bool
}

func (f *fakeService) CheckHealth(context.Context) error { return f.healthErr }

func (f *fakeService) ListProducts(context.Context) (*app.ProductListResult, error) {
	if f.panicOnList {
		panic("boom")
	}
	return &app.ProductListResult{}, nil
}

func (f *fakeService) SetStock(_ context.Context, req app.SetStockRequest) (*app.ProductResult, error) {
	f.setStock = req
	if req.Count < 0 {
		return nil, fmt.Errorf("%w: stock count cannot be negative", core.ErrInvalidArgument)
	}
	return &app.ProductResult{Product: &core.Product{ID: req.ProductID, CountInStock: req.Count}}, nil
}

func (f *fakeService) CreateQuotation(_ context.Context, req app.CreateQuotationRequest) (*app.OrderResult, error) {
	f.quotation = req
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &app.OrderResult{Order: &core.SaleOrder{ID: 1, OrderNumber: "20240305-001", Status: core.OrderStatusQuotation}}, nil
}

func (f *fakeService) GetOrder(_ context.Context, ref string) (*app.OrderResult, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &app.OrderResult{Order: &core.SaleOrder{ID: 1, OrderNumber: ref}}, nil
}

func (f *fakeService) MarkSold(_ context.Context, ref string) (*app.OrderResult, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &app.OrderResult{Order: &core.SaleOrder{ID: 1, Status: core.OrderStatusSold}}, nil
}

func (f *fakeService) DeleteOrder(_ context.Context, ref string) error {
	f.deletedRef = ref
	return f.orderErr
}

func (f *fakeService) DeleteOrderItem(_ context.Context, id int) error {
	f.deletedItem = id
	return nil
}

func (f *fakeService) QuotationSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Title: "quotation"}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, nil, nil)

	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	svc.healthErr = errors.New("refused")
	rec = do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateQuotation_Created(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, nil, nil)

	body := `{"date_ordered":"2024-03-05","company_id":1,"person_in_charge_id":2,"user_id":3,
		"order_items":[{"product_id":5,"quantity":4,"description":"four"}]}`
	rec := do(t, h, http.MethodPost, "/api/orders", body, "Idempotency-Key", "req-1")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "req-1", svc.quotation.IdempotencyKey)
	assert.Equal(t, 2, svc.quotation.PersonInChargeID)
	require.Len(t, svc.quotation.Items, 1)
	assert.Equal(t, core.OrderItemInput{ProductID: 5, Quantity: 4, Description: "four"}, svc.quotation.Items[0])

	var order core.SaleOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "20240305-001", order.OrderNumber)
}

func TestCreateQuotation_RejectedListsFailures(t *testing.T) {
	svc := &fakeService{quoteErr: core.ValidationErrors{
		{Err: core.ErrInsufficientStock, Line: 1, ProductID: 5, Details: "Widget: requested 5, only 3 in stock"},
		{Err: core.ErrProductNotFound, Line: 2, ProductID: 9},
	}}
	h := NewHandler(svc, nil, nil)

	rec := do(t, h, http.MethodPost, "/api/orders", `{"order_items":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "ORDER_REJECTED", resp.Code)
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Failures, 2)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Failures[0].Code)
	assert.Equal(t, 1, resp.Failures[0].Line)
	assert.Equal(t, "PRODUCT_NOT_FOUND", resp.Failures[1].Code)
}

func TestCreateQuotation_BadJSON(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil)
	rec := do(t, h, http.MethodPost, "/api/orders", `{"order_items":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
}

func TestCreateQuotation_BodyTooLarge(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil)
	big := `{"order_items":[` + strings.Repeat(`{"product_id":1,"quantity":1},`, 40000) + `{}]}`
	rec := do(t, h, http.MethodPost, "/api/orders", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad date", core.ErrInvalidArgument), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{fmt.Errorf("order 4: %w", core.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("product 4: %w", core.ErrProductNotFound), http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{fmt.Errorf("order 4: %w", core.ErrInvalidTransition), http.StatusConflict, "INVALID_TRANSITION"},
		{fmt.Errorf("x: %w", core.ErrDuplicateOrderNumber), http.StatusConflict, "DUPLICATE_ORDER_NUMBER"},
		{fmt.Errorf("product 4: %w", core.ErrInsufficientStock), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := NewHandler(&fakeService{orderErr: tt.err}, nil, nil)
			rec := do(t, h, http.MethodPost, "/api/orders/7/sold", "")
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Error)
			}
		})
	}
}

func TestSetStock(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, nil, nil)

	rec := do(t, h, http.MethodPut, "/api/products/3/stock", `{"count_in_stock":12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.SetStockRequest{ProductID: 3, Count: 12}, svc.setStock)

	rec = do(t, h, http.MethodPut, "/api/products/3/stock", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/products/3/stock", `{"count_in_stock":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/products/abc/stock", `{"count_in_stock":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRoutes(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, nil, nil)

	rec := do(t, h, http.MethodDelete, "/api/orders/20240305-001", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "20240305-001", svc.deletedRef)

	rec = do(t, h, http.MethodDelete, "/api/order-items/11", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 11, svc.deletedItem)
}

func TestGetOrderByNumber(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil)
	rec := do(t, h, http.MethodGet, "/api/orders/20240305-002", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var order core.SaleOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "20240305-002", order.OrderNumber)
}

func TestListProducts_EmptyArray(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil)
	rec := do(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	h := NewHandler(&fakeService{panicOnList: true}, nil, nil)
	rec := do(t, h, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestRequestID_KeepsSafeCallerID(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil)

	rec := do(t, h, http.MethodGet, "/api/health", "", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/api/health", "", "X-Request-ID", "<script>")
	assert.NotEqual(t, "<script>", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	h := NewHandler(&fakeService{}, []string{"http://app.test"}, nil)

	rec := do(t, h, http.MethodOptions, "/api/orders", "", "Origin", "http://app.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/api/health", "", "Origin", "http://evil.test")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestQuotationSchemaRoute(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil)
	rec := do(t, h, http.MethodGet, "/api/schemas/quotation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"quotation"`)
}
