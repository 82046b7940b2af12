package app

import "sales-backoffice/internal/core"

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.SaleOrder
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.SaleOrder
	Status string // filter applied; empty means all
}

// OrderItemResult is returned by UpdateOrderItem.
type OrderItemResult struct {
	Item *core.OrderItem
}

// ProductResult is returned by product writes.
type ProductResult struct {
	Product *core.Product
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// StockResult is returned by GetStock.
type StockResult struct {
	ProductID    int `json:"product_id"`
	CountInStock int `json:"count_in_stock"`
}
