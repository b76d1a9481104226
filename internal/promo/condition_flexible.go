package promo

import (
	"context"
	"fmt"
)

// evaluateFlexible filters by the identifier lists, or accepts any product
// when allowed, and requires the filtered set's totals to satisfy both the
// value and the quantity bounds.
func (e evaluator) evaluateFlexible(ctx context.Context, c FlexibleCriteria, items []ProductItem) *evaluation {
	filtered := items
	if !c.AllowAnyProduct {
		filtered = filterItems(items, c.ProductIDs, c.BrandIDs, c.CategoryIDs, nil)
	}
	if len(filtered) == 0 {
		return nil
	}

	amount := e.agg.Aggregate(ctx, filtered, BasisAmount, "")
	quantity := e.agg.Aggregate(ctx, filtered, BasisQuantity, c.TargetUOM)
	if !between(amount, c.MinValue, c.MaxValue) {
		return nil
	}
	if !between(quantity, c.MinQuantity, c.MaxQuantity) {
		return nil
	}

	base := amount
	if base == 0 {
		base = quantity
	}
	return &evaluation{
		base:       base,
		appliedQty: 1,
		groups:     []groupValue{{value: base, min: c.MinValue}},
		matched:    filtered,
		desc:       fmt.Sprintf("flexible: amount %.2f, quantity %.2f over %d items", amount, quantity, len(filtered)),
	}
}
