package core

import "fmt"

// ValidateOrderItems checks proposed order lines against a product snapshot.
//
// Every failing line is reported; a non-empty result rejects the whole batch.
// Quantities of lines naming the same product are accumulated, so the batch as a
// whole can never claim more than the product's count.
func ValidateOrderItems(items []OrderItemInput, products []Product) ValidationErrors {
	byID := make(map[int]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	demand := make(map[int]int, len(items))
	var failures ValidationErrors

	for i, item := range items {
		line := i + 1

		if item.Quantity <= 0 {
			failures = append(failures, &ValidationError{
				Err:       ErrInvalidArgument,
				Line:      line,
				ProductID: item.ProductID,
				Details:   fmt.Sprintf("quantity must be positive, got %d", item.Quantity),
			})
			continue
		}

		p, ok := byID[item.ProductID]
		if !ok {
			failures = append(failures, &ValidationError{
				Err:       ErrProductNotFound,
				Line:      line,
				ProductID: item.ProductID,
				Details:   fmt.Sprintf("product %d does not exist", item.ProductID),
			})
			continue
		}

		demand[p.ID] += item.Quantity

		switch {
		case p.CountInStock <= 0:
			failures = append(failures, &ValidationError{
				Err:       ErrInsufficientStock,
				Line:      line,
				ProductID: p.ID,
				Details:   fmt.Sprintf("%s is out of stock", p.Name),
			})
		case demand[p.ID] > p.CountInStock:
			failures = append(failures, &ValidationError{
				Err:       ErrInsufficientStock,
				Line:      line,
				ProductID: p.ID,
				Details: fmt.Sprintf("%s: requested %d, only %d in stock",
					p.Name, demand[p.ID], p.CountInStock),
			})
		}
	}

	return failures
}

// productIDs returns the distinct product ids referenced by items.
func productIDs(items []OrderItemInput) []int {
	seen := make(map[int]bool, len(items))
	ids := make([]int, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
