package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sales-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	logger *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxBodyBytes))

	r.Get("/api/health", h.health)

	// ── Products and stock ────────────────────────────────────────────────────
	r.Get("/api/products", h.apiListProducts)
	r.Post("/api/products", h.apiCreateProduct)
	r.Get("/api/products/{id}/stock", h.apiGetStock)
	r.Put("/api/products/{id}/stock", h.apiSetStock)

	// ── Sale orders ───────────────────────────────────────────────────────────
	r.Get("/api/orders", h.apiListOrders)
	r.Post("/api/orders", h.apiCreateQuotation)
	r.Get("/api/orders/{ref}", h.apiGetOrder)
	r.Patch("/api/orders/{ref}", h.apiUpdateOrder)
	r.Delete("/api/orders/{ref}", h.apiDeleteOrder)
	r.Post("/api/orders/{ref}/sold", h.apiMarkSold)
	r.Patch("/api/order-items/{id}", h.apiUpdateOrderItem)
	r.Delete("/api/order-items/{id}", h.apiDeleteOrderItem)

	r.Get("/api/schemas/quotation", h.apiQuotationSchema)

	h.router = r
	return r
}

// health returns service status; 503 when the database is unreachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}

	if err := h.svc.CheckHealth(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Database: "ok"})
}

// fail writes err as a JSON error response, logging anything unexpected.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errorCode(err) == "INTERNAL_ERROR" {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err))
	}
	writeServiceError(w, r, err)
}

// intParam parses a positive integer URL parameter, writing a 400 on failure.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		writeError(w, r, name+" must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
