package promo

import (
	"math"

	"github.com/shopspring/decimal"
)

// rewardOutcome is the raw result of applying a reward spec to a base value.
type rewardOutcome struct {
	amount   float64
	discount float64
	capped   bool
	original float64
}

// round2 rounds to two decimal places, half away from zero. Monetary amounts
// and aggregation results are always reported at this precision.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// computeReward turns a reward spec, base value and threshold multiplier into
// a monetary amount. appliedQty is at least 1; proratedMin is the invoice
// prorating threshold, zero when absent. Amounts at or above the maximum
// reward cap are clamped and flagged as capped.
func computeReward(r Reward, base, appliedQty, proratedMin float64) rewardOutcome {
	var amount float64
	switch r.Type {
	case RewardDiscountPercent:
		pct := r.Value
		if appliedQty > 1 {
			pct = r.Value * appliedQty
		} else if proratedMin > 0 && base > 0 {
			pct = r.Value * math.Floor(base/proratedMin)
		}
		amount = round2(base * pct / 100)
	case RewardDiscountFixed:
		switch {
		case appliedQty > 1:
			amount = round2(r.Value * appliedQty)
		case proratedMin > 0 && base >= proratedMin:
			amount = round2(r.Value * math.Floor(base/proratedMin))
		default:
			amount = round2(r.Value)
		}
	case RewardCashback, RewardLoyaltyPoints:
		amount = r.Value
	case RewardFreeProduct:
		// The benefit is the product list, not money.
		amount = 0
	case RewardProductDiscount:
		var sum float64
		for _, pd := range r.ProductDiscounts {
			sum += pd.Value
		}
		amount = round2(sum)
	default:
		amount = round2(r.Value)
	}
	if amount < 0 {
		amount = 0
	}

	out := rewardOutcome{amount: amount, original: amount}
	if r.MaxRewardAmount != nil && amount >= *r.MaxRewardAmount {
		out.capped = true
		out.amount = *r.MaxRewardAmount
	}
	switch r.Type {
	case RewardDiscountPercent, RewardDiscountFixed, RewardProductDiscount:
		out.discount = out.amount
	}
	return out
}
