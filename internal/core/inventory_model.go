package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item together with its stock count.
// CountInStock is never negative.
type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	CountInStock  int             `json:"count_in_stock"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductInput is used when registering a new product.
type ProductInput struct {
	Name          string
	UnitOfMeasure string
	CountInStock  int
	CostPrice     decimal.Decimal
	SalePrice     decimal.Decimal
}

// StockLevel is the committed stock count of one product.
type StockLevel struct {
	ProductID    int `json:"product_id"`
	CountInStock int `json:"count_in_stock"`
}

func stockLevels(products []Product) []StockLevel {
	levels := make([]StockLevel, 0, len(products))
	for _, p := range products {
		levels = append(levels, StockLevel{ProductID: p.ID, CountInStock: p.CountInStock})
	}
	return levels
}
