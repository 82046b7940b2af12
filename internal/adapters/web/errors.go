package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"sales-backoffice/internal/core"
)

type errorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code"`
	RequestID string        `json:"request_id,omitempty"`
	Failures  []lineFailure `json:"failures,omitempty"`
}

// lineFailure is one rejected order line of a quotation.
type lineFailure struct {
	Line      int    `json:"line"`
	ProductID int    `json:"product_id"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a service error onto an HTTP status and error code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var failures core.ValidationErrors
	if errors.As(err, &failures) {
		resp := errorResponse{Error: err.Error(), Code: "ORDER_REJECTED"}
		for _, f := range failures {
			resp.Failures = append(resp.Failures, lineFailure{
				Line:      f.Line,
				ProductID: f.ProductID,
				Code:      errorCode(f.Err),
				Error:     f.Error(),
			})
		}
		writeErrorResponse(w, r, http.StatusUnprocessableEntity, resp)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInsufficientStock):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, core.ErrDuplicateOrderNumber):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeError(w, r, message, errorCode(err), status)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return "INVALID_ARGUMENT"
	case errors.Is(err, core.ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, core.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, core.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, core.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, core.ErrDuplicateOrderNumber):
		return "DUPLICATE_ORDER_NUMBER"
	}
	return "INTERNAL_ERROR"
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
