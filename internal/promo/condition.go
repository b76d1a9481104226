package promo

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// evaluation captures a satisfied condition before reward computation.
type evaluation struct {
	base        float64      // value the reward is computed against
	appliedQty  float64      // threshold multiplier, 1 unless prorated
	proratedMin float64      // invoice prorating threshold forwarded to the reward calculator
	groups      []groupValue // per-criterion values used by the prorating wrapper
	matched     []ProductItem
	desc        string
}

// groupValue is one sub-criterion's aggregated value and its minimum
// threshold, kept for prorating.
type groupValue struct {
	value float64
	min   float64
}

// evaluator runs condition strategies against a cart. It owns no state across
// conditions; the usage tracker is threaded through by the engine.
type evaluator struct {
	agg   Aggregator
	log   zerolog.Logger
	scope Scope
}

// evaluate dispatches on the condition type. A nil evaluation with nil error
// means the condition was not met; that is an outcome, never an error.
func (e evaluator) evaluate(ctx context.Context, cond Condition, items []ProductItem, cartAmount float64) (*evaluation, error) {
	switch cond.Type {
	case ConditionInvoice:
		if cond.Invoice == nil {
			return nil, ErrCriteriaShape
		}
		return e.evaluateInvoice(ctx, *cond.Invoice, cond, items), nil
	case ConditionCombo:
		if cond.Combo == nil {
			return nil, ErrCriteriaShape
		}
		return e.evaluateCombo(ctx, *cond.Combo, items), nil
	case ConditionAssorted:
		if cond.Assorted == nil {
			return nil, ErrCriteriaShape
		}
		return e.evaluateAssorted(ctx, *cond.Assorted, items), nil
	case ConditionLineItem:
		if cond.LineItem == nil {
			return nil, ErrCriteriaShape
		}
		return e.evaluateLineItem(ctx, *cond.LineItem, items), nil
	case ConditionFlexibleProduct:
		if cond.Flexible == nil {
			return nil, ErrCriteriaShape
		}
		return e.evaluateFlexible(ctx, *cond.Flexible, items), nil
	default:
		return nil, ErrCriteriaShape
	}
}

// between reports whether v sits in the [min,max] band. A zero max means
// unbounded.
func between(v, min, max float64) bool {
	if v < min {
		return false
	}
	if max > 0 && v > max {
		return false
	}
	return true
}

func containsFold(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, entry := range list {
		if strings.EqualFold(entry, v) {
			return true
		}
	}
	return false
}

// matchesLists reports whether the item hits any of the non-empty identifier
// lists. With all lists empty every item matches.
func matchesLists(it ProductItem, productIDs, brandIDs, categoryIDs, subcategoryIDs []string) bool {
	scoped := len(productIDs) > 0 || len(brandIDs) > 0 || len(categoryIDs) > 0 || len(subcategoryIDs) > 0
	if !scoped {
		return true
	}
	if containsFold(productIDs, it.ProductID) {
		return true
	}
	if containsFold(brandIDs, it.BrandID) {
		return true
	}
	if containsFold(categoryIDs, it.CategoryID) {
		return true
	}
	return containsFold(subcategoryIDs, it.SubcategoryID)
}

func filterItems(items []ProductItem, productIDs, brandIDs, categoryIDs, subcategoryIDs []string) []ProductItem {
	out := make([]ProductItem, 0, len(items))
	for _, it := range items {
		if matchesLists(it, productIDs, brandIDs, categoryIDs, subcategoryIDs) {
			out = append(out, it)
		}
	}
	return out
}

func distinctProducts(items []ProductItem) int {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it.ProductID] = struct{}{}
	}
	return len(seen)
}

func defaultBasis(candidates ...Basis) Basis {
	for _, b := range candidates {
		if b != "" {
			return b
		}
	}
	return BasisQuantity
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// dedupeItems drops repeated lines for the same product, keeping the first.
// Used when sub-criteria overlap on the same cart line.
func dedupeItems(items []ProductItem) []ProductItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]ProductItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it)
	}
	return out
}
