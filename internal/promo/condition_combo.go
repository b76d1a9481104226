package promo

import (
	"context"
	"fmt"
)

func (e evaluator) evaluateCombo(ctx context.Context, c ComboCriteria, items []ProductItem) *evaluation {
	if len(c.Criteria) == 0 {
		return nil
	}
	if c.MatchType == MatchAny {
		return e.evaluateComboAny(ctx, c, items)
	}
	return e.evaluateComboAll(ctx, c, items)
}

// evaluateComboAll requires every sub-criterion to match at least one cart
// item and satisfy its own bounds. A sub-criterion that misses its bounds in
// the primary unit gets one retry with the same bounds against each-unit
// values before the whole condition fails.
func (e evaluator) evaluateComboAll(ctx context.Context, c ComboCriteria, items []ProductItem) *evaluation {
	var (
		qtyTotal float64
		amtTotal float64
		matched  []ProductItem
		groups   []groupValue
	)
	for i, sub := range c.Criteria {
		subItems := filterItems(items,
			singleton(sub.ProductID), singleton(sub.BrandID),
			singleton(sub.CategoryID), singleton(sub.SubcategoryID))
		if len(subItems) == 0 {
			e.log.Debug().Int("criterion", i).Msg("combo criterion matched no items")
			return nil
		}
		basis := defaultBasis(sub.Basis, c.Basis)
		value := e.agg.Aggregate(ctx, subItems, basis, sub.TargetUOM)
		if !between(value, sub.MinValue, sub.MaxValue) {
			eachValue := e.agg.Aggregate(ctx, subItems, basis, uomEach)
			if !between(eachValue, sub.MinValue, sub.MaxValue) {
				e.log.Debug().
					Int("criterion", i).
					Float64("value", value).
					Float64("eachValue", eachValue).
					Msg("combo criterion outside bounds")
				return nil
			}
			value = eachValue
		}
		switch basis {
		case BasisAmount:
			amtTotal += value
		default:
			qtyTotal += value
		}
		matched = append(matched, subItems...)
		groups = append(groups, groupValue{value: value, min: sub.MinValue})
	}

	base := qtyTotal
	if base == 0 {
		base = amtTotal
	}
	return &evaluation{
		base:       base,
		appliedQty: 1,
		groups:     groups,
		matched:    dedupeItems(matched),
		desc:       fmt.Sprintf("combo all: %d criteria satisfied, base %.2f", len(c.Criteria), base),
	}
}

// evaluateComboAny pools cart items matching any sub-criterion and aggregates
// the pool once under the top-level basis. The pooled quantity total is reset
// to zero when the basis is amount or weight; only the basis value drives the
// reward.
func (e evaluator) evaluateComboAny(ctx context.Context, c ComboCriteria, items []ProductItem) *evaluation {
	var pool []ProductItem
	for _, it := range items {
		for _, sub := range c.Criteria {
			if matchesLists(it,
				singleton(sub.ProductID), singleton(sub.BrandID),
				singleton(sub.CategoryID), singleton(sub.SubcategoryID)) {
				pool = append(pool, it)
				break
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}

	basis := defaultBasis(c.Basis)
	matchedQty := e.agg.Aggregate(ctx, pool, BasisQuantity, c.TargetUOM)
	value := matchedQty
	if basis != BasisQuantity {
		matchedQty = 0
		value = e.agg.Aggregate(ctx, pool, basis, c.TargetUOM)
	}
	if !between(value, c.MinValue, c.MaxValue) {
		return nil
	}
	return &evaluation{
		base:       value,
		appliedQty: 1,
		groups:     []groupValue{{value: value, min: c.MinValue}},
		matched:    pool,
		desc:       fmt.Sprintf("combo any: %d items pooled, %s %.2f (qty %.2f)", len(pool), basis, value, matchedQty),
	}
}

func singleton(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}
