package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"sales-backoffice/internal/app"
	"sales-backoffice/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	app.ApplicationService
	quotation app.CreateQuotationRequest
	quoteErr  error
	setStock  app.SetStockRequest
	deleted   string
}

func (f *fakeService) ListProducts(context.Context) (*app.ProductListResult, error) {
	return &app.ProductListResult{Products: []core.Product{
		{ID: 1, Name: "Widget", UnitOfMeasure: "pcs", CountInStock: 5, SalePrice: decimal.NewFromInt(100)},
	}}, nil
}

func (f *fakeService) SetStock(_ context.Context, req app.SetStockRequest) (*app.ProductResult, error) {
	f.setStock = req
	return &app.ProductResult{Product: &core.Product{ID: req.ProductID, Name: "Widget", CountInStock: req.Count}}, nil
}

func (f *fakeService) CreateQuotation(_ context.Context, req app.CreateQuotationRequest) (*app.OrderResult, error) {
	f.quotation = req
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &app.OrderResult{Order: &core.SaleOrder{ID: 1, OrderNumber: "20240305-001", Status: core.OrderStatusQuotation}}, nil
}

func (f *fakeService) DeleteOrder(_ context.Context, ref string) error {
	f.deleted = ref
	return nil
}

func run(t *testing.T, svc app.ApplicationService, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), svc, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRun_Products(t *testing.T) {
	out, err := run(t, &fakeService{}, "", "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "100.00")
}

func TestRun_SetStock(t *testing.T) {
	svc := &fakeService{}
	out, err := run(t, svc, "", "set-stock", "3", "12")
	require.NoError(t, err)
	assert.Equal(t, app.SetStockRequest{ProductID: 3, Count: 12}, svc.setStock)
	assert.Contains(t, out, "stock set to 12")

	_, err = run(t, svc, "", "set-stock", "3")
	assert.Error(t, err)
}

func TestRun_QuoteReadsStdin(t *testing.T) {
	svc := &fakeService{}
	stdin := `{"company_id":1,"person_in_charge_id":2,"user_id":3,"order_items":[{"product_id":1,"quantity":2}]}`

	out, err := run(t, svc, stdin, "quote", "-key", "batch-7")
	require.NoError(t, err)
	assert.Equal(t, "batch-7", svc.quotation.IdempotencyKey)
	require.Len(t, svc.quotation.Items, 1)
	assert.Equal(t, 2, svc.quotation.Items[0].Quantity)
	assert.Contains(t, out, "20240305-001")
}

func TestRun_QuotePrintsFailures(t *testing.T) {
	svc := &fakeService{quoteErr: core.ValidationErrors{
		{Err: core.ErrInsufficientStock, Line: 1, ProductID: 1, Details: "Widget: requested 9, only 5 in stock"},
	}}

	out, err := run(t, svc, `{"order_items":[{"product_id":1,"quantity":9}]}`, "quote")
	assert.ErrorIs(t, err, core.ErrInsufficientStock)
	assert.Contains(t, out, "Quotation rejected:")
	assert.Contains(t, out, "requested 9, only 5 in stock")
}

func TestRun_Delete(t *testing.T) {
	svc := &fakeService{}
	_, err := run(t, svc, "", "delete", "20240305-001")
	require.NoError(t, err)
	assert.Equal(t, "20240305-001", svc.deleted)
}

func TestRun_Usage(t *testing.T) {
	_, err := run(t, &fakeService{}, "")
	assert.ErrorContains(t, err, "Usage")

	_, err = run(t, &fakeService{}, "", "ship")
	assert.ErrorContains(t, err, "unknown command: ship")

	_, err = run(t, &fakeService{}, "", "delete-item", "x")
	assert.Error(t, err)
}
