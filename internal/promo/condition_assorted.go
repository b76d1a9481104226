package promo

import (
	"context"
	"fmt"
)

// evaluateAssorted sums independently evaluated sub-criteria and enforces the
// top-level bounds on the sum. A sub-criterion with zero matches is skipped,
// not rejecting, which yields "A alone, or A+B together, meeting total X"
// semantics. Per-criterion bounds are informational only; they are logged but
// never enforced.
func (e evaluator) evaluateAssorted(ctx context.Context, c AssortedCriteria, items []ProductItem) *evaluation {
	if len(c.Criteria) == 0 {
		return e.evaluateAssortedLegacy(ctx, c, items)
	}

	var (
		total   float64
		matched []ProductItem
		groups  []groupValue
	)
	for i, sub := range c.Criteria {
		subItems := filterItems(items, sub.ProductIDs, sub.BrandIDs, sub.CategoryIDs, nil)
		if len(subItems) == 0 {
			continue
		}
		basis := defaultBasis(sub.Basis, c.Basis)
		value := e.agg.Aggregate(ctx, subItems, basis, firstNonEmpty(sub.TargetUOM, c.TargetUOM))
		if !between(value, sub.MinValue, sub.MaxValue) {
			// Partial fulfilment still counts toward the total.
			e.log.Debug().
				Int("criterion", i).
				Float64("value", value).
				Float64("min", sub.MinValue).
				Float64("max", sub.MaxValue).
				Msg("assorted criterion outside its own bounds")
		}
		total += value
		matched = append(matched, subItems...)
		groups = append(groups, groupValue{value: value, min: sub.MinValue})
	}
	if total == 0 {
		return nil
	}
	if !between(total, c.MinValue, c.MaxValue) {
		return nil
	}
	return &evaluation{
		base:       total,
		appliedQty: 1,
		groups:     groups,
		matched:    dedupeItems(matched),
		desc:       fmt.Sprintf("assorted: %d criteria contributed total %.2f", len(groups), total),
	}
}

// evaluateAssortedLegacy pools items matching any of the flat identifier
// lists and aggregates once.
func (e evaluator) evaluateAssortedLegacy(ctx context.Context, c AssortedCriteria, items []ProductItem) *evaluation {
	pool := filterItems(items, c.ProductIDs, c.BrandIDs, c.CategoryIDs, c.SubcategoryIDs)
	if len(pool) == 0 {
		return nil
	}
	basis := defaultBasis(c.Basis)
	value := e.agg.Aggregate(ctx, pool, basis, c.TargetUOM)
	if value == 0 || !between(value, c.MinValue, c.MaxValue) {
		return nil
	}
	return &evaluation{
		base:       value,
		appliedQty: 1,
		groups:     []groupValue{{value: value, min: c.MinValue}},
		matched:    pool,
		desc:       fmt.Sprintf("assorted: pooled %s %.2f over %d items", basis, value, len(pool)),
	}
}
