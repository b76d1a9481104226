package promo

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	uomEach = "each"
	uomKg   = "kg"
)

// Aggregator reduces a set of matched line items to a single scalar under one
// of the three bases. Unit reconciliation is delegated to ConvertUOM and the
// product data source; every degradation is logged, never fatal.
type Aggregator struct {
	Products ProductDataSource
	Log      zerolog.Logger
}

// Aggregate reduces items under the given basis. For weight aggregation the
// target unit defaults to kg; weight is UOM-aware quantity aggregation, not a
// separate path.
func (a Aggregator) Aggregate(ctx context.Context, items []ProductItem, basis Basis, targetUOM string) float64 {
	switch basis {
	case BasisAmount:
		var total float64
		for _, it := range items {
			total += it.UnitPrice * it.Quantity
		}
		return total
	case BasisWeight:
		if strings.TrimSpace(targetUOM) == "" {
			targetUOM = uomKg
		}
		return a.aggregateQuantity(ctx, items, targetUOM)
	default:
		return a.aggregateQuantity(ctx, items, targetUOM)
	}
}

func (a Aggregator) aggregateQuantity(ctx context.Context, items []ProductItem, targetUOM string) float64 {
	var total float64
	for _, it := range items {
		total += a.resolveQuantity(ctx, it, targetUOM)
	}
	return total
}

// resolveQuantity expresses one item's quantity in the target unit through a
// priority cascade: the item's own factor table, capacity lookup for weight
// targets, master-data factors, and finally the raw quantity with a warning.
func (a Aggregator) resolveQuantity(ctx context.Context, item ProductItem, targetUOM string) float64 {
	target := strings.TrimSpace(targetUOM)
	if target == "" {
		return item.Quantity
	}
	src := normalizeUOM(item.UOM)
	if src == "" {
		// Unlabelled quantities count as eaches.
		src = uomEach
	}
	if strings.EqualFold(src, target) {
		return item.Quantity
	}

	if qty, ok := ConvertUOM(item.Quantity, src, target, item.UnitPerCases); ok {
		return qty
	}

	if isWeightUnit(target) {
		if qty, ok := a.quantityByCapacity(ctx, item, src, target); ok {
			return qty
		}
	}

	if details := a.uomDetails(ctx, item.ProductID); details != nil {
		if qty, ok := ConvertUOM(item.Quantity, src, target, details.UnitPerCases); ok {
			return qty
		}
	}

	a.Log.Warn().
		Str("productId", item.ProductID).
		Str("uom", item.UOM).
		Str("targetUom", target).
		Msg("uom conversion not possible, keeping raw quantity")
	return item.Quantity
}

// quantityByCapacity resolves a weight target through the product's
// capacity-per-base-unit: the quantity is converted into the base unit first,
// then multiplied by the kg capacity.
func (a Aggregator) quantityByCapacity(ctx context.Context, item ProductItem, src, target string) (float64, bool) {
	capacity := item.Weight
	if capacity <= 0 {
		capacity = a.capacityInKg(ctx, item.ProductID)
	}
	if capacity <= 0 {
		return 0, false
	}

	base := uomEach
	factors := item.UnitPerCases
	if details := a.uomDetails(ctx, item.ProductID); details != nil {
		if b := normalizeUOM(details.BaseUOM); b != "" {
			base = b
		}
		if len(factors) == 0 {
			factors = details.UnitPerCases
		}
	}
	baseQty, ok := ConvertUOM(item.Quantity, src, base, factors)
	if !ok {
		return 0, false
	}

	kg := baseQty * capacity
	if strings.EqualFold(target, "g") || strings.EqualFold(target, "gram") {
		return kg * 1000, true
	}
	return kg, true
}

func (a Aggregator) capacityInKg(ctx context.Context, productID string) float64 {
	if a.Products == nil {
		return 0
	}
	capacity, err := a.Products.CapacityInKg(ctx, productID)
	if err != nil {
		a.Log.Warn().Err(err).Str("productId", productID).Msg("capacity lookup failed, assuming zero")
		return 0
	}
	return capacity
}

func (a Aggregator) uomDetails(ctx context.Context, productID string) *UOMDetails {
	if a.Products == nil {
		return nil
	}
	details, err := a.Products.UOMDetails(ctx, productID)
	if err != nil {
		a.Log.Warn().Err(err).Str("productId", productID).Msg("uom details lookup failed")
		return nil
	}
	return details
}

// normalizeUOM trims the label and maps the n/a placeholder to empty.
func normalizeUOM(uom string) string {
	trimmed := strings.TrimSpace(uom)
	if strings.EqualFold(trimmed, "n/a") || strings.EqualFold(trimmed, "na") {
		return ""
	}
	return trimmed
}

func isWeightUnit(uom string) bool {
	switch strings.ToLower(strings.TrimSpace(uom)) {
	case "kg", "kgs", "kilogram", "g", "gram", "grams", "ton", "tonne":
		return true
	}
	return false
}
