package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds regeneration after a storage-level order number conflict.
const maxOrderNumberAttempts = 2

// SaleOrderService runs the sale order lifecycle and keeps product stock consistent with it.
type SaleOrderService interface {
	// Lifecycle
	// CreateQuotation validates the items against locked stock, assigns an order number,
	// decrements stock and persists the order in one transaction. A rejected batch
	// returns ValidationErrors and changes nothing.
	CreateQuotation(ctx context.Context, in CreateQuotationInput) (*SaleOrder, error)
	UpdateOrder(ctx context.Context, in UpdateOrderInput) (*SaleOrder, error)
	// UpdateOrderItem replaces an item's fields without touching stock.
	UpdateOrderItem(ctx context.Context, in UpdateOrderItemInput) (*OrderItem, error)
	// DeleteOrder restores the stock of every item, whatever the order's status, then deletes it.
	DeleteOrder(ctx context.Context, orderID int) error
	DeleteOrderItem(ctx context.Context, itemID int) error
	// MarkSold transitions QUOTATION → SOLD.
	MarkSold(ctx context.Context, orderID int) (*SaleOrder, error)

	// Queries
	GetOrder(ctx context.Context, orderID int) (*SaleOrder, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*SaleOrder, error)
	GetOrders(ctx context.Context, status *OrderStatus) ([]SaleOrder, error)
	ListOrderNumbers(ctx context.Context) ([]string, error)

	// PurgeIdempotencyKeys drops idempotency keys recorded before olderThan.
	PurgeIdempotencyKeys(ctx context.Context, olderThan time.Time) (int64, error)
}

type saleOrderService struct {
	pool   *pgxpool.Pool
	ledger StockLedger
	notify notifier
	logger *zap.Logger
}

// NewSaleOrderService wires the lifecycle to its stock ledger. cache and events may be nil.
func NewSaleOrderService(pool *pgxpool.Pool, ledger StockLedger, cache ProductCache, events EventPublisher, logger *zap.Logger) SaleOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &saleOrderService{
		pool:   pool,
		ledger: ledger,
		notify: notifier{cache: cache, events: events, logger: logger},
		logger: logger,
	}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

// quotationResult is what one committed createQuotation attempt produced.
type quotationResult struct {
	orderID  int
	replayed bool
	stock    []Product
}

func (s *saleOrderService) CreateQuotation(ctx context.Context, in CreateQuotationInput) (*SaleOrder, error) {
	dateOrdered, err := validateHeader(in.DateOrdered, in.CompanyID, in.PersonInChargeID, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order must have at least one item", ErrInvalidArgument)
	}

	var res quotationResult
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		res, err = s.createQuotation(ctx, in, dateOrdered)
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			break
		}
		s.logger.Warn("order number conflict, regenerating",
			zap.String("date_ordered", in.DateOrdered),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, res.orderID)
	if err != nil {
		return nil, err
	}
	if res.replayed {
		s.logger.Info("quotation replayed for idempotency key",
			zap.String("idempotency_key", in.IdempotencyKey),
			zap.String("order_number", order.OrderNumber))
		return order, nil
	}

	s.logger.Info("quotation created",
		zap.Int("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)))
	s.notify.stockChanged(ctx, res.stock)
	s.notify.publish(ctx, OrderEvent{Type: EventOrderCreated, OrderID: order.ID, OrderNumber: order.OrderNumber, Stock: stockLevels(res.stock)})
	return order, nil
}

// createQuotation is one transactional attempt: validate → number → decrement → persist.
func (s *saleOrderService) createQuotation(ctx context.Context, in CreateQuotationInput, dateOrdered time.Time) (quotationResult, error) {
	var res quotationResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if in.IdempotencyKey != "" {
		existingID, claimed, err := claimIdempotencyKey(ctx, tx, in.IdempotencyKey)
		if err != nil {
			return res, err
		}
		if !claimed {
			return quotationResult{orderID: existingID, replayed: true}, nil
		}
	}

	// Lock every referenced product so validation and decrement see the same counts.
	products, err := s.ledger.LockProductsTx(ctx, tx, productIDs(in.Items))
	if err != nil {
		return res, err
	}
	if failures := ValidateOrderItems(in.Items, products); len(failures) > 0 {
		return res, failures
	}

	orderNumber, err := nextOrderNumberTx(ctx, tx, dateOrdered)
	if err != nil {
		return res, err
	}

	counts := make(map[int]int, len(products))
	for _, p := range products {
		counts[p.ID] = p.CountInStock
	}
	updated := make(map[int]Product, len(products))
	for _, item := range in.Items {
		counts[item.ProductID] -= item.Quantity
		p, err := s.ledger.SetStockTx(ctx, tx, item.ProductID, counts[item.ProductID])
		if err != nil {
			return res, err
		}
		updated[p.ID] = *p
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sale_orders (order_number, date_ordered, company_id, person_in_charge_id, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, orderNumber, dateOrdered.Format(orderDateLayout), in.CompanyID, in.PersonInChargeID, in.UserID,
		string(OrderStatusQuotation)).Scan(&orderID)
	if err != nil {
		if isOrderNumberConflict(err) {
			return res, fmt.Errorf("order number %s: %w", orderNumber, ErrDuplicateOrderNumber)
		}
		return res, fmt.Errorf("failed to insert sale order: %w", err)
	}

	for i, item := range in.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (sale_order_id, line_number, product_id, quantity, description)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, i+1, item.ProductID, item.Quantity, item.Description)
		if err != nil {
			return res, fmt.Errorf("failed to insert order item %d: %w", i+1, err)
		}
	}

	if in.IdempotencyKey != "" {
		if _, err = tx.Exec(ctx,
			"UPDATE idempotency_keys SET sale_order_id = $1 WHERE key = $2",
			orderID, in.IdempotencyKey,
		); err != nil {
			return res, fmt.Errorf("failed to bind idempotency key: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isOrderNumberConflict(err) {
			return res, fmt.Errorf("order number %s: %w", orderNumber, ErrDuplicateOrderNumber)
		}
		return res, fmt.Errorf("failed to commit quotation: %w", err)
	}

	res.orderID = orderID
	res.stock = sortedProducts(updated)
	return res, nil
}

// claimIdempotencyKey records key for this transaction. If another request already
// committed under key, it returns that request's order id and claimed=false.
func claimIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) (int, bool, error) {
	var inserted string
	err := tx.QueryRow(ctx, `
		INSERT INTO idempotency_keys (key) VALUES ($1)
		ON CONFLICT (key) DO NOTHING
		RETURNING key
	`, key).Scan(&inserted)
	if err == nil {
		return 0, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to record idempotency key: %w", err)
	}

	var orderID *int
	if err := tx.QueryRow(ctx,
		"SELECT sale_order_id FROM idempotency_keys WHERE key = $1", key,
	).Scan(&orderID); err != nil {
		return 0, false, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if orderID == nil {
		return 0, false, fmt.Errorf("%w: idempotency key %q has no order", ErrNotFound, key)
	}
	return *orderID, false, nil
}

// nextOrderNumberTx serialises number assignment per day with a transaction-scoped
// advisory lock, then derives the next number from that day's issued numbers.
func nextOrderNumberTx(ctx context.Context, tx pgx.Tx, dateOrdered time.Time) (string, error) {
	prefix := OrderNumberPrefix(dateOrdered)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "order-number:"+prefix); err != nil {
		return "", fmt.Errorf("failed to lock order number sequence: %w", err)
	}

	existing, err := listOrderNumbersQ(ctx, tx, prefix)
	if err != nil {
		return "", err
	}
	return NextOrderNumber(dateOrdered, existing)
}

func (s *saleOrderService) UpdateOrder(ctx context.Context, in UpdateOrderInput) (*SaleOrder, error) {
	dateOrdered, err := validateHeader(in.DateOrdered, in.CompanyID, in.PersonInChargeID, in.UserID)
	if err != nil {
		return nil, err
	}

	var orderNumber string
	err = s.pool.QueryRow(ctx, `
		UPDATE sale_orders
		SET date_ordered = $1, company_id = $2, person_in_charge_id = $3, user_id = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING order_number
	`, dateOrdered.Format(orderDateLayout), in.CompanyID, in.PersonInChargeID, in.UserID, in.OrderID).Scan(&orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", in.OrderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update order %d: %w", in.OrderID, err)
	}

	s.notify.publish(ctx, OrderEvent{Type: EventOrderUpdated, OrderID: in.OrderID, OrderNumber: orderNumber})
	return s.GetOrder(ctx, in.OrderID)
}

func (s *saleOrderService) UpdateOrderItem(ctx context.Context, in UpdateOrderItemInput) (*OrderItem, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, in.Quantity)
	}

	var item OrderItem
	err := s.pool.QueryRow(ctx, `
		UPDATE order_items
		SET product_id = $1, quantity = $2, description = $3
		WHERE id = $4
		RETURNING id, sale_order_id, line_number, product_id, quantity, description
	`, in.ProductID, in.Quantity, in.Description, in.ItemID).Scan(
		&item.ID, &item.SaleOrderID, &item.LineNumber, &item.ProductID, &item.Quantity, &item.Description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order item %d: %w", in.ItemID, ErrNotFound)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("product %d: %w", in.ProductID, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to update order item %d: %w", in.ItemID, err)
	}

	s.logger.Debug("order item updated without stock adjustment",
		zap.Int("item_id", item.ID),
		zap.Int("product_id", item.ProductID),
		zap.Int("quantity", item.Quantity))
	s.notify.publish(ctx, OrderEvent{Type: EventOrderItemUpdated, OrderID: item.SaleOrderID, ItemID: item.ID})
	return &item, nil
}

func (s *saleOrderService) DeleteOrder(ctx context.Context, orderID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	var orderNumber string
	err = tx.QueryRow(ctx,
		"SELECT status, order_number FROM sale_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&status, &orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	items, err := fetchOrderItemsQ(ctx, tx, orderID)
	if err != nil {
		return err
	}

	inputs := make([]OrderItemInput, len(items))
	for i, item := range items {
		inputs[i] = OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	restored, err := s.restoreStockTx(ctx, tx, inputs)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, "DELETE FROM sale_orders WHERE id = $1", orderID); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}

	if status == OrderStatusSold {
		s.logger.Warn("deleted a sold order, stock restored",
			zap.Int("order_id", orderID),
			zap.String("order_number", orderNumber))
	} else {
		s.logger.Info("order deleted", zap.Int("order_id", orderID), zap.String("order_number", orderNumber))
	}
	s.notify.stockChanged(ctx, restored)
	s.notify.publish(ctx, OrderEvent{Type: EventOrderDeleted, OrderID: orderID, OrderNumber: orderNumber, Stock: stockLevels(restored)})
	return nil
}

// restoreStockTx gives every item's quantity back to its product.
func (s *saleOrderService) restoreStockTx(ctx context.Context, tx pgx.Tx, items []OrderItemInput) ([]Product, error) {
	products, err := s.ledger.LockProductsTx(ctx, tx, productIDs(items))
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int, len(products))
	for _, p := range products {
		counts[p.ID] = p.CountInStock
	}

	updated := make(map[int]Product, len(products))
	for _, item := range items {
		current, ok := counts[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrProductNotFound)
		}
		restored := current + item.Quantity
		if restored < 0 {
			return nil, fmt.Errorf("product %d: restored stock would be %d: %w", item.ProductID, restored, ErrInsufficientStock)
		}
		p, err := s.ledger.SetStockTx(ctx, tx, item.ProductID, restored)
		if err != nil {
			return nil, err
		}
		counts[item.ProductID] = restored
		updated[p.ID] = *p
	}

	return sortedProducts(updated), nil
}

// sortedProducts flattens products keyed by id into ascending id order.
func sortedProducts(byID map[int]Product) []Product {
	out := make([]Product, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *saleOrderService) DeleteOrderItem(ctx context.Context, itemID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID, productID, quantity int
	err = tx.QueryRow(ctx,
		"SELECT sale_order_id, product_id, quantity FROM order_items WHERE id = $1 FOR UPDATE",
		itemID,
	).Scan(&orderID, &productID, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order item %d: %w", itemID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch order item %d: %w", itemID, err)
	}

	restored, err := s.restoreStockTx(ctx, tx, []OrderItemInput{{ProductID: productID, Quantity: quantity}})
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, "DELETE FROM order_items WHERE id = $1", itemID); err != nil {
		return fmt.Errorf("failed to delete order item %d: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order item deletion: %w", err)
	}

	s.logger.Info("order item deleted",
		zap.Int("item_id", itemID),
		zap.Int("order_id", orderID),
		zap.Int("restored_quantity", quantity))
	s.notify.stockChanged(ctx, restored)
	s.notify.publish(ctx, OrderEvent{Type: EventOrderItemDeleted, OrderID: orderID, ItemID: itemID, Stock: stockLevels(restored)})
	return nil
}

func (s *saleOrderService) MarkSold(ctx context.Context, orderID int) (*SaleOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM sale_orders WHERE id = $1 FOR UPDATE",
		orderID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	if status != OrderStatusQuotation {
		return nil, fmt.Errorf("order %d cannot be marked sold: status is %s (must be %s): %w",
			orderID, status, OrderStatusQuotation, ErrInvalidTransition)
	}

	_, err = tx.Exec(ctx,
		"UPDATE sale_orders SET status = $1, sold_at = NOW(), updated_at = NOW() WHERE id = $2",
		string(OrderStatusSold), orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %d sold: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sold transition: %w", err)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order sold", zap.Int("order_id", orderID), zap.String("order_number", order.OrderNumber))
	s.notify.publish(ctx, OrderEvent{Type: EventOrderSold, OrderID: orderID, OrderNumber: order.OrderNumber})
	return order, nil
}

func (s *saleOrderService) PurgeIdempotencyKeys(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM idempotency_keys WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

// validateHeader checks the header fields shared by create and update.
func validateHeader(dateOrdered string, companyID, personInChargeID, userID int) (time.Time, error) {
	d, err := ParseOrderDate(dateOrdered)
	if err != nil {
		return time.Time{}, err
	}
	var missing []string
	if companyID <= 0 {
		missing = append(missing, "company")
	}
	if personInChargeID <= 0 {
		missing = append(missing, "person in charge")
	}
	if userID <= 0 {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		return time.Time{}, fmt.Errorf("%w: %s required", ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return d, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

const orderColumns = `
	so.id, so.order_number, so.date_ordered::text, so.company_id, so.person_in_charge_id,
	so.user_id, so.status, so.created_at, so.updated_at, so.sold_at`

func scanOrder(row pgx.Row) (SaleOrder, error) {
	var o SaleOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.DateOrdered, &o.CompanyID, &o.PersonInChargeID,
		&o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt, &o.SoldAt)
	return o, err
}

func (s *saleOrderService) GetOrder(ctx context.Context, orderID int) (*SaleOrder, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM sale_orders so WHERE so.id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	items, err := fetchOrderItemsQ(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	o.Total = orderTotal(items)
	return &o, nil
}

func (s *saleOrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*SaleOrder, error) {
	var orderID int
	err := s.pool.QueryRow(ctx, "SELECT id FROM sale_orders WHERE order_number = $1", orderNumber).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up order by number: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *saleOrderService) GetOrders(ctx context.Context, status *OrderStatus) ([]SaleOrder, error) {
	query := `
		SELECT ` + orderColumns + `,
		       COALESCE(SUM(oi.quantity * p.sale_price), 0)
		FROM sale_orders so
		LEFT JOIN order_items oi ON oi.sale_order_id = so.id
		LEFT JOIN products p ON p.id = oi.product_id
	`
	var args []any
	if status != nil {
		query += " WHERE so.status = $1"
		args = append(args, string(*status))
	}
	query += " GROUP BY so.id ORDER BY so.date_ordered DESC, so.order_number DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []SaleOrder
	for rows.Next() {
		var o SaleOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.DateOrdered, &o.CompanyID, &o.PersonInChargeID,
			&o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt, &o.SoldAt, &o.Total); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

func (s *saleOrderService) ListOrderNumbers(ctx context.Context) ([]string, error) {
	return listOrderNumbersQ(ctx, s.pool, "")
}

// listOrderNumbersQ returns order numbers starting with prefix (all numbers when empty).
func listOrderNumbersQ(ctx context.Context, q pgxQuerier, prefix string) ([]string, error) {
	rows, err := q.Query(ctx,
		"SELECT order_number FROM sale_orders WHERE starts_with(order_number, $1) ORDER BY order_number",
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan order number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order numbers: %w", err)
	}
	return numbers, nil
}

func fetchOrderItemsQ(ctx context.Context, q pgxQuerier, orderID int) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.sale_order_id, oi.line_number,
		       p.id, p.name, p.unit_of_measure,
		       oi.quantity, oi.description, p.sale_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.sale_order_id = $1
		ORDER BY oi.line_number, oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.SaleOrderID, &it.LineNumber,
			&it.ProductID, &it.ProductName, &it.UnitOfMeasure,
			&it.Quantity, &it.Description, &it.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		it.Amount = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

func orderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}
