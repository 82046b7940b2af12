package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a sale order.
//
//	QUOTATION → SOLD
//
// SOLD is terminal.
type OrderStatus string

const (
	OrderStatusQuotation OrderStatus = "QUOTATION"
	OrderStatusSold      OrderStatus = "SOLD"
)

// ParseOrderStatus returns the status named by s, or false if s is not a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusQuotation, OrderStatusSold:
		return OrderStatus(s), true
	}
	return "", false
}

// SaleOrder is a sale order header together with its order items.
// Company and person-in-charge are references into master data owned elsewhere.
type SaleOrder struct {
	ID               int             `json:"id"`
	OrderNumber      string          `json:"order_number"`
	DateOrdered      string          `json:"date_ordered"` // YYYY-MM-DD
	CompanyID        int             `json:"company_id"`
	PersonInChargeID int             `json:"person_in_charge_id"`
	UserID           int             `json:"user_id"`
	Status           OrderStatus     `json:"status"`
	Total            decimal.Decimal `json:"total"` // computed from live sale prices
	Items            []OrderItem     `json:"order_items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	SoldAt           *time.Time      `json:"sold_at,omitempty"`
}

// OrderItem is one product line of a sale order.
// UnitPrice is read from the product at query time and is not stored on the item.
type OrderItem struct {
	ID            int             `json:"id"`
	SaleOrderID   int             `json:"sale_order_id"`
	LineNumber    int             `json:"line_number"`
	ProductID     int             `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`    // joined from products
	UnitOfMeasure string          `json:"unit_of_measure,omitempty"` // joined from products
	Quantity      int             `json:"quantity"`
	Description   string          `json:"description"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
}

// OrderItemInput is a proposed order line.
type OrderItemInput struct {
	ProductID   int    `json:"product_id" jsonschema:"minimum=1"`
	Quantity    int    `json:"quantity" jsonschema:"minimum=1"`
	Description string `json:"description,omitempty"`
}

// CreateQuotationInput is a candidate order submitted for committal.
// A non-empty IdempotencyKey makes resubmission return the order created the first time.
type CreateQuotationInput struct {
	DateOrdered      string
	CompanyID        int
	PersonInChargeID int
	UserID           int
	Items            []OrderItemInput
	IdempotencyKey   string
}

// UpdateOrderInput replaces the header fields of an order. Items and stock are untouched.
type UpdateOrderInput struct {
	OrderID          int
	DateOrdered      string
	CompanyID        int
	PersonInChargeID int
	UserID           int
}

// UpdateOrderItemInput replaces the fields of a single order item.
type UpdateOrderItemInput struct {
	ItemID      int
	ProductID   int
	Quantity    int
	Description string
}
