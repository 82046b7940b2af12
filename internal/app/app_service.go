package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sales-backoffice/internal/core"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"
)

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type appService struct {
	db     Pinger
	ledger core.StockLedger
	orders core.SaleOrderService
	now    func() time.Time
	logger *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	db Pinger,
	ledger core.StockLedger,
	orders core.SaleOrderService,
	logger *zap.Logger,
) ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &appService{
		db:     db,
		ledger: ledger,
		orders: orders,
		now:    time.Now,
		logger: logger,
	}
}

// CheckHealth pings the database.
func (s *appService) CheckHealth(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// ── Products and stock ───────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.ledger.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error) {
	p, err := s.ledger.CreateProduct(ctx, core.ProductInput{
		Name:          req.Name,
		UnitOfMeasure: req.UnitOfMeasure,
		CountInStock:  req.CountInStock,
		CostPrice:     req.CostPrice,
		SalePrice:     req.SalePrice,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

func (s *appService) GetStock(ctx context.Context, productID int) (*StockResult, error) {
	count, err := s.ledger.CurrentStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockResult{ProductID: productID, CountInStock: count}, nil
}

func (s *appService) SetStock(ctx context.Context, req SetStockRequest) (*ProductResult, error) {
	p, err := s.ledger.SetStock(ctx, req.ProductID, req.Count)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) ListOrders(ctx context.Context, status string) (*OrderListResult, error) {
	var filter *core.OrderStatus
	if status != "" {
		st, ok := core.ParseOrderStatus(strings.ToUpper(status))
		if !ok {
			return nil, fmt.Errorf("%w: unknown order status %q", core.ErrInvalidArgument, status)
		}
		filter = &st
	}

	orders, err := s.orders.GetOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := &OrderListResult{Orders: orders}
	if filter != nil {
		result.Status = string(*filter)
	}
	return result, nil
}

func (s *appService) GetOrder(ctx context.Context, ref string) (*OrderResult, error) {
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CreateQuotation(ctx context.Context, req CreateQuotationRequest) (*OrderResult, error) {
	dateOrdered := req.DateOrdered
	if dateOrdered == "" {
		dateOrdered = s.now().Format("2006-01-02")
	}

	order, err := s.orders.CreateQuotation(ctx, core.CreateQuotationInput{
		DateOrdered:      dateOrdered,
		CompanyID:        req.CompanyID,
		PersonInChargeID: req.PersonInChargeID,
		UserID:           req.UserID,
		Items:            req.Items,
		IdempotencyKey:   strings.TrimSpace(req.IdempotencyKey),
	})
	if err != nil {
		var failures core.ValidationErrors
		if errors.As(err, &failures) {
			s.logger.Info("quotation rejected",
				zap.Int("company_id", req.CompanyID),
				zap.Int("failures", len(failures)))
		}
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*OrderResult, error) {
	orderID, err := s.resolveOrderID(ctx, req.Ref)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.UpdateOrder(ctx, core.UpdateOrderInput{
		OrderID:          orderID,
		DateOrdered:      req.DateOrdered,
		CompanyID:        req.CompanyID,
		PersonInChargeID: req.PersonInChargeID,
		UserID:           req.UserID,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrderItem(ctx context.Context, req UpdateOrderItemRequest) (*OrderItemResult, error) {
	item, err := s.orders.UpdateOrderItem(ctx, core.UpdateOrderItemInput{
		ItemID:      req.ItemID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	return &OrderItemResult{Item: item}, nil
}

func (s *appService) DeleteOrder(ctx context.Context, ref string) error {
	orderID, err := s.resolveOrderID(ctx, ref)
	if err != nil {
		return err
	}
	return s.orders.DeleteOrder(ctx, orderID)
}

func (s *appService) DeleteOrderItem(ctx context.Context, itemID int) error {
	return s.orders.DeleteOrderItem(ctx, itemID)
}

func (s *appService) MarkSold(ctx context.Context, ref string) (*OrderResult, error) {
	orderID, err := s.resolveOrderID(ctx, ref)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.MarkSold(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) QuotationSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&CreateQuotationRequest{})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// resolveOrder looks up an order by numeric ID or, failing that, by order number.
func (s *appService) resolveOrder(ctx context.Context, ref string) (*core.SaleOrder, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: order reference is required", core.ErrInvalidArgument)
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return s.orders.GetOrder(ctx, id)
	}
	return s.orders.GetOrderByNumber(ctx, ref)
}

// resolveOrderID avoids a lookup when ref is already a numeric ID.
func (s *appService) resolveOrderID(ctx context.Context, ref string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		return id, nil
	}
	order, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}
