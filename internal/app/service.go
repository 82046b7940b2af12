package app

import (
	"context"

	"github.com/invopop/jsonschema"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// CheckHealth reports whether the database is reachable.
	CheckHealth(ctx context.Context) error

	// ListProducts returns every product with its current stock.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// CreateProduct registers a product with an opening stock count.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error)

	// GetStock returns the committed stock count of one product.
	GetStock(ctx context.Context, productID int) (*StockResult, error)

	// SetStock overwrites a product's stock count (manual restock or correction).
	SetStock(ctx context.Context, req SetStockRequest) (*ProductResult, error)

	// ListOrders returns orders, optionally filtered by status ("" means all).
	ListOrders(ctx context.Context, status string) (*OrderListResult, error)

	// GetOrder returns a single order by numeric ID or order number.
	GetOrder(ctx context.Context, ref string) (*OrderResult, error)

	// CreateQuotation validates the items, assigns an order number and decrements stock.
	// A rejected batch returns core.ValidationErrors listing every failing line.
	CreateQuotation(ctx context.Context, req CreateQuotationRequest) (*OrderResult, error)

	// UpdateOrder replaces the header fields of an order. ref may be an ID or order number.
	UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*OrderResult, error)

	// UpdateOrderItem replaces one item's product, quantity and description. Stock is untouched.
	UpdateOrderItem(ctx context.Context, req UpdateOrderItemRequest) (*OrderItemResult, error)

	// DeleteOrder deletes an order and gives its items' quantities back to stock.
	DeleteOrder(ctx context.Context, ref string) error

	// DeleteOrderItem deletes one item and gives its quantity back to stock.
	DeleteOrderItem(ctx context.Context, itemID int) error

	// MarkSold transitions a QUOTATION to SOLD.
	MarkSold(ctx context.Context, ref string) (*OrderResult, error)

	// QuotationSchema returns the JSON schema of a quotation request body.
	QuotationSchema() *jsonschema.Schema
}
