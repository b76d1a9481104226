package promo

// UsageTracker accumulates the product quantities consumed by conditions
// within one scheme evaluation so overlapping rules cannot claim the same
// units twice. A tracker is created fresh per scheme and never shared.
type UsageTracker map[string]float64

// Consume records the full quantity of every given item as claimed.
func (t UsageTracker) Consume(items []ProductItem) {
	for _, it := range items {
		t[it.ProductID] += it.Quantity
	}
}

// Remaining returns the portion of the cart not yet claimed by earlier
// conditions. Items fully consumed are dropped; partially consumed items keep
// their unclaimed remainder.
func (t UsageTracker) Remaining(items []ProductItem) []ProductItem {
	if len(t) == 0 {
		return items
	}
	out := make([]ProductItem, 0, len(items))
	for _, it := range items {
		left := it.Quantity - t[it.ProductID]
		if left <= 0 {
			continue
		}
		it.Quantity = left
		out = append(out, it)
	}
	return out
}
