package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// StockLedger is the authoritative count of units available per product.
type StockLedger interface {
	// Standalone operations (manage their own transactions).
	GetProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	CurrentStock(ctx context.Context, productID int) (int, error)
	// SetStock overwrites the stored count. Used for manual restock and corrections.
	SetStock(ctx context.Context, productID, newCount int) (*Product, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by SaleOrderService to keep stock changes atomic with order writes.

	// LockProductsTx reads the given products with FOR UPDATE, in ascending id order.
	// Ids without a product are absent from the result.
	LockProductsTx(ctx context.Context, tx pgx.Tx, productIDs []int) ([]Product, error)
	// SetStockTx writes newCount for a product the caller has already locked.
	SetStockTx(ctx context.Context, tx pgx.Tx, productID, newCount int) (*Product, error)
}

type stockLedger struct {
	pool   *pgxpool.Pool
	notify notifier
	logger *zap.Logger
}

// NewStockLedger builds a StockLedger on the products table.
// cache and events may be nil.
func NewStockLedger(pool *pgxpool.Pool, cache ProductCache, events EventPublisher, logger *zap.Logger) StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stockLedger{
		pool:   pool,
		notify: notifier{cache: cache, events: events, logger: logger},
		logger: logger,
	}
}

const productColumns = `id, name, unit_of_measure, count_in_stock, cost_price, sale_price, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.UnitOfMeasure, &p.CountInStock,
		&p.CostPrice, &p.SalePrice, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *stockLedger) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (s *stockLedger) GetProduct(ctx context.Context, productID int) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return &p, nil
}

func (s *stockLedger) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidArgument)
	}
	if in.CountInStock < 0 {
		return nil, fmt.Errorf("%w: count in stock cannot be negative, got %d", ErrInvalidArgument, in.CountInStock)
	}
	if in.CostPrice.IsNegative() || in.SalePrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices cannot be negative", ErrInvalidArgument)
	}
	unit := in.UnitOfMeasure
	if unit == "" {
		unit = "pcs"
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (name, unit_of_measure, count_in_stock, cost_price, sale_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		in.Name, unit, in.CountInStock, in.CostPrice, in.SalePrice))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.notify.stockChanged(ctx, []Product{p})
	return &p, nil
}

func (s *stockLedger) CurrentStock(ctx context.Context, productID int) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT count_in_stock FROM products WHERE id = $1", productID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
		}
		return 0, fmt.Errorf("failed to read stock for product %d: %w", productID, err)
	}
	return count, nil
}

func (s *stockLedger) SetStock(ctx context.Context, productID, newCount int) (*Product, error) {
	if newCount < 0 {
		return nil, fmt.Errorf("%w: stock count cannot be negative, got %d", ErrInvalidArgument, newCount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.LockProductsTx(ctx, tx, []int{productID})
	if err != nil {
		return nil, err
	}
	if len(locked) == 0 {
		return nil, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}

	p, err := s.SetStockTx(ctx, tx, productID, newCount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock update: %w", err)
	}

	s.logger.Info("stock set",
		zap.Int("product_id", productID),
		zap.Int("previous", locked[0].CountInStock),
		zap.Int("count", newCount))
	s.notify.stockChanged(ctx, []Product{*p})
	return p, nil
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (s *stockLedger) LockProductsTx(ctx context.Context, tx pgx.Tx, productIDs []int) ([]Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	ids := append([]int(nil), productIDs...)
	sort.Ints(ids)

	// ORDER BY id gives every transaction the same lock order.
	rows, err := tx.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked products: %w", err)
	}
	return products, nil
}

func (s *stockLedger) SetStockTx(ctx context.Context, tx pgx.Tx, productID, newCount int) (*Product, error) {
	if newCount < 0 {
		return nil, fmt.Errorf("product %d: stock would drop to %d: %w", productID, newCount, ErrInsufficientStock)
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET count_in_stock = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+productColumns,
		newCount, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
		}
		return nil, fmt.Errorf("failed to set stock for product %d: %w", productID, err)
	}
	return &p, nil
}
