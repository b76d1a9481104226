package promo

import (
	"context"
	"fmt"
	"math"
)

// evaluateInvoice compares the cart total, under the condition basis, against
// the [min,max] band. Invoice prorating is inline: the multiplier is how many
// whole times the total covers the minimum, and it scales the reward together
// with the threshold itself.
func (e evaluator) evaluateInvoice(ctx context.Context, c InvoiceCriteria, cond Condition, items []ProductItem) *evaluation {
	basis := defaultBasis(c.Basis, BasisAmount)
	total := e.agg.Aggregate(ctx, items, basis, "")
	if !between(total, c.MinValue, c.MaxValue) {
		e.log.Debug().
			Float64("total", total).
			Float64("min", c.MinValue).
			Float64("max", c.MaxValue).
			Msg("invoice condition not met")
		return nil
	}

	res := &evaluation{
		base:       total,
		appliedQty: 1,
		desc:       fmt.Sprintf("invoice %s %.2f meets threshold %.2f", basis, total, c.MinValue),
	}
	if cond.ProRated && c.MinValue > 0 {
		multiplier := math.Floor(total / c.MinValue)
		if multiplier < 1 {
			multiplier = 1
		}
		res.appliedQty = multiplier
		res.proratedMin = c.MinValue
	}
	// Invoice conditions act on totals, not item identity; matched stays empty
	// so no quantities are claimed.
	return res
}
