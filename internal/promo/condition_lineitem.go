package promo

import (
	"context"
	"fmt"
)

// evaluateLineItem filters the cart by the condition's allow-lists, validates
// the optional pricing-group mapping, aggregates the filtered set and requires
// the aggregate to reach the minimum line total across at least two distinct
// products.
func (e evaluator) evaluateLineItem(ctx context.Context, c LineItemCriteria, items []ProductItem) *evaluation {
	filtered := filterItems(items, c.ProductIDs, c.BrandIDs, c.CategoryIDs, c.SubcategoryIDs)
	if len(filtered) == 0 {
		return nil
	}

	if c.PricingGroupID != "" && !e.pricingGroupValid(ctx, c.PricingGroupID, filtered) {
		e.log.Debug().Str("pricingGroupId", c.PricingGroupID).Msg("pricing group mapping rejected line-item condition")
		return nil
	}

	basis := defaultBasis(c.Basis)
	total := e.agg.Aggregate(ctx, filtered, basis, c.TargetUOM)
	if total < c.MinLineTotal {
		return nil
	}
	// Multi-line-item rules need at least two distinct products.
	if distinctProducts(filtered) < 2 {
		return nil
	}

	if u := c.Unified; u != nil {
		unifiedItems := filterItems(items, u.ProductIDs, u.BrandIDs, u.CategoryIDs, nil)
		if len(unifiedItems) == 0 {
			return nil
		}
		value := e.agg.Aggregate(ctx, unifiedItems, defaultBasis(u.Basis), "")
		if value < u.MinValue {
			return nil
		}
	}

	return &evaluation{
		base:       total,
		appliedQty: 1,
		groups:     []groupValue{{value: total, min: c.MinLineTotal}},
		matched:    filtered,
		desc:       fmt.Sprintf("line items: %s %.2f across %d products", basis, total, distinctProducts(filtered)),
	}
}

// pricingGroupValid checks that the pricing group is mapped to the current
// warehouse and that every matched product belongs to it. Lookup errors fail
// open: the check passes and a warning is logged.
func (e evaluator) pricingGroupValid(ctx context.Context, groupID string, items []ProductItem) bool {
	if e.agg.Products == nil {
		return true
	}

	groups, err := e.agg.Products.PricingGroups(ctx, []string{groupID})
	if err != nil {
		e.log.Warn().Err(err).Str("pricingGroupId", groupID).Msg("pricing group lookup failed, passing check")
		return true
	}
	warehouseOK := false
	for _, g := range groups {
		if g.GroupID != groupID {
			continue
		}
		if g.WarehouseID == "" || g.WarehouseID == e.scope.WarehouseID {
			warehouseOK = true
			break
		}
	}
	if !warehouseOK {
		return false
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	mappings, err := e.agg.Products.PricingGroupProducts(ctx, ids)
	if err != nil {
		e.log.Warn().Err(err).Str("pricingGroupId", groupID).Msg("pricing group membership lookup failed, passing check")
		return true
	}
	member := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if m.GroupID == groupID {
			member[m.ProductID] = struct{}{}
		}
	}
	for _, it := range items {
		if _, ok := member[it.ProductID]; !ok {
			return false
		}
	}
	return true
}
