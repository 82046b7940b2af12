package web

import (
	"net/http"

	"sales-backoffice/internal/app"
	"sales-backoffice/internal/core"

	"github.com/go-chi/chi/v5"
)

// apiListOrders handles GET /api/orders?status=.
func (h *Handler) apiListOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if result.Orders == nil {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, result.Orders)
}

// apiGetOrder handles GET /api/orders/{ref}. ref is an ID or order number.
func (h *Handler) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiCreateQuotation handles POST /api/orders.
// Body: { date_ordered?, company_id, person_in_charge_id, user_id, order_items: [{product_id, quantity, description?}] }
// An Idempotency-Key header makes retries return the order created by the first attempt.
func (h *Handler) apiCreateQuotation(w http.ResponseWriter, r *http.Request) {
	var req app.CreateQuotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	result, err := h.svc.CreateQuotation(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Order)
}

// apiUpdateOrder handles PATCH /api/orders/{ref}.
// Body: { date_ordered, company_id, person_in_charge_id, user_id }
func (h *Handler) apiUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DateOrdered      string `json:"date_ordered"`
		CompanyID        int    `json:"company_id"`
		PersonInChargeID int    `json:"person_in_charge_id"`
		UserID           int    `json:"user_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateOrder(r.Context(), app.UpdateOrderRequest{
		Ref:              chi.URLParam(r, "ref"),
		DateOrdered:      body.DateOrdered,
		CompanyID:        body.CompanyID,
		PersonInChargeID: body.PersonInChargeID,
		UserID:           body.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiDeleteOrder handles DELETE /api/orders/{ref}.
func (h *Handler) apiDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteOrder(r.Context(), chi.URLParam(r, "ref")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiMarkSold handles POST /api/orders/{ref}/sold.
func (h *Handler) apiMarkSold(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.MarkSold(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// apiUpdateOrderItem handles PATCH /api/order-items/{id}.
// Body: { product_id, quantity, description? }
func (h *Handler) apiUpdateOrderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body core.OrderItemInput
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateOrderItem(r.Context(), app.UpdateOrderItemRequest{
		ItemID:      id,
		ProductID:   body.ProductID,
		Quantity:    body.Quantity,
		Description: body.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, result.Item)
}

// apiDeleteOrderItem handles DELETE /api/order-items/{id}.
func (h *Handler) apiDeleteOrderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrderItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiQuotationSchema handles GET /api/schemas/quotation.
func (h *Handler) apiQuotationSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.QuotationSchema())
}
