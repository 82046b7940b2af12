package web

import (
	"net/http"

	"sales-backoffice/internal/app"

	"github.com/shopspring/decimal"
)

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if result.Products == nil {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, result.Products)
}

// apiCreateProduct handles POST /api/products.
// Body: { name, unit_of_measure?, count_in_stock, cost_price, sale_price }
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string          `json:"name"`
		UnitOfMeasure string          `json:"unit_of_measure"`
		CountInStock  int             `json:"count_in_stock"`
		CostPrice     decimal.Decimal `json:"cost_price"`
		SalePrice     decimal.Decimal `json:"sale_price"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateProduct(r.Context(), app.CreateProductRequest{
		Name:          body.Name,
		UnitOfMeasure: body.UnitOfMeasure,
		CountInStock:  body.CountInStock,
		CostPrice:     body.CostPrice,
		SalePrice:     body.SalePrice,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Product)
}

// apiGetStock handles GET /api/products/{id}/stock.
func (h *Handler) apiGetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetStock(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetStock handles PUT /api/products/{id}/stock.
// Body: { count_in_stock }
func (h *Handler) apiSetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		CountInStock *int `json:"count_in_stock"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.CountInStock == nil {
		writeError(w, r, "count_in_stock is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.SetStock(r.Context(), app.SetStockRequest{ProductID: id, Count: *body.CountInStock})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, result.Product)
}
