package promo

import "math"

// applicationUnit is the fixed group value per reward application in the
// generic prorating rule.
const applicationUnit = 100

// prorate recomputes the threshold multiplier for a prorated, non-invoice
// condition and adjusts the reward base in place. Invoice conditions prorate
// inline and never reach here.
//
// For combo/match-all the per-criterion application counts are ANDed: the
// scheme-wide multiplier is the minimum of floor(value/min) across criteria
// that carry a minimum, and the reward applies to the full invoice total.
//
// For the generic multi-criterion case each satisfied criterion contributes
// floor(value/100) applications, at least one, fractional when the condition
// allows halves; the counts are summed and capped at MaxApplications.
func prorate(cond Condition, res *evaluation, cartAmount float64) {
	if cond.Type == ConditionCombo && cond.Combo != nil && cond.Combo.MatchType != MatchAny {
		multiplier := math.Inf(1)
		found := false
		for _, g := range res.groups {
			if g.min <= 0 || g.value <= 0 {
				continue
			}
			apps := math.Floor(g.value / g.min)
			if apps < multiplier {
				multiplier = apps
			}
			found = true
		}
		if !found || multiplier < 1 {
			multiplier = 1
		}
		res.appliedQty = multiplier
		if cartAmount > 0 {
			res.base = cartAmount
		}
		return
	}

	var apps float64
	var groupTotal float64
	for _, g := range res.groups {
		if g.value <= 0 {
			continue
		}
		groupTotal += g.value
		n := g.value / applicationUnit
		if !cond.HalfApplicable {
			n = math.Floor(n)
		}
		if n < 1 {
			// A satisfied criterion always counts at least once.
			n = 1
		}
		apps += n
	}
	if apps < 1 {
		apps = 1
	}
	if cond.MaxApplications > 0 && apps > float64(cond.MaxApplications) {
		apps = float64(cond.MaxApplications)
	}
	res.appliedQty = apps
	if cond.Reward.Type == RewardDiscountPercent {
		if cartAmount > 0 {
			res.base = cartAmount
		} else if groupTotal > 0 {
			res.base = groupTotal
		}
	}
}
