package app

import (
	"github.com/shopspring/decimal"

	"sales-backoffice/internal/core"
)

// CreateQuotationRequest is the input for submitting a new quotation.
// DateOrdered defaults to today when empty.
type CreateQuotationRequest struct {
	DateOrdered      string                `json:"date_ordered,omitempty" jsonschema:"format=date" jsonschema_description:"Order date as YYYY-MM-DD; defaults to today"`
	CompanyID        int                   `json:"company_id" jsonschema:"minimum=1"`
	PersonInChargeID int                   `json:"person_in_charge_id" jsonschema:"minimum=1"`
	UserID           int                   `json:"user_id" jsonschema:"minimum=1"`
	Items            []core.OrderItemInput `json:"order_items" jsonschema:"minItems=1"`
	IdempotencyKey   string                `json:"-"`
}

// UpdateOrderRequest is the input for replacing an order's header fields.
type UpdateOrderRequest struct {
	Ref              string
	DateOrdered      string
	CompanyID        int
	PersonInChargeID int
	UserID           int
}

// UpdateOrderItemRequest is the input for replacing an order item's fields.
type UpdateOrderItemRequest struct {
	ItemID      int
	ProductID   int
	Quantity    int
	Description string
}

// CreateProductRequest is the input for registering a product.
type CreateProductRequest struct {
	Name          string
	UnitOfMeasure string
	CountInStock  int
	CostPrice     decimal.Decimal
	SalePrice     decimal.Decimal
}

// SetStockRequest is the input for a manual stock edit.
type SetStockRequest struct {
	ProductID int
	Count     int
}
