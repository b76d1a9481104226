package promo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// invoiceGroup is the synthetic mutual-exclusion group for schemes that carry
// an invoice condition but declare no explicit group.
const invoiceGroup = "invoice_schemes"

// Engine evaluates promotional schemes against a cart. It owns no data:
// schemes and product master data come from the injected sources, and nothing
// is persisted across calls.
type Engine struct {
	Schemes  SchemeSource
	Products ProductDataSource
	Log      zerolog.Logger
}

// Calculate is the single entry point. It filters applicability, evaluates
// conditions, resolves mutual exclusion and returns the applied rewards plus
// the full applicability report. Unexpected panics during evaluation surface
// as one wrapped error.
func (en *Engine) Calculate(ctx context.Context, items []ProductItem, scope Scope, filters Filters) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("promo: calculate: %v", r)
		}
	}()

	if en == nil || en.Schemes == nil {
		return Result{}, ErrNotConfigured
	}
	if len(items) == 0 {
		return Result{}, ErrNoProducts
	}
	if strings.TrimSpace(scope.WarehouseID) == "" {
		return Result{}, ErrMissingWarehouse
	}

	agg := Aggregator{Products: en.Products, Log: en.Log}
	ev := evaluator{agg: agg, log: en.Log, scope: scope}
	cartAmount := agg.Aggregate(ctx, items, BasisAmount, "")

	candidates, err := en.Schemes.CandidateSchemes(ctx, scope)
	if err != nil {
		return Result{}, fmt.Errorf("promo: fetch candidate schemes: %w", err)
	}

	excluded := toSet(filters.ExcludeSchemeIDs)
	statuses := newStatusBook()

	var eligible []Scheme
	for _, s := range candidates {
		if excluded[s.ID] {
			statuses.set(s, StatusExcluded, "excluded by request")
			continue
		}
		if ok, reason := applicable(s, scope, items); !ok {
			statuses.set(s, StatusNotApplicable, reason)
			continue
		}
		eligible = append(eligible, s)
	}

	var applied []CalculatedReward
	if len(filters.IncludeSchemeIDs) > 0 {
		applied = en.applyIncluded(ctx, ev, eligible, items, cartAmount, toSet(filters.IncludeSchemeIDs), statuses)
	} else {
		applied = en.selectSchemes(ctx, ev, eligible, items, cartAmount, statuses)
	}

	en.reportAvailability(ctx, ev, scope, items, cartAmount, filters, candidates, statuses)

	result.AppliedSchemes = applied
	result.AvailableSchemes = statuses.reportable()
	for _, r := range applied {
		result.TotalDiscount += r.Discount
		result.TotalRewardAmount += r.Amount
		result.Summary.FreeProducts = append(result.Summary.FreeProducts, r.FreeProducts...)
		result.Summary.DiscountedProducts = append(result.Summary.DiscountedProducts, r.ProductDiscounts...)
	}
	result.TotalDiscount = round2(result.TotalDiscount)
	result.TotalRewardAmount = round2(result.TotalRewardAmount)
	result.Summary.TotalDiscount = result.TotalDiscount
	result.Summary.TotalRewardAmount = result.TotalRewardAmount
	return result, nil
}

// applyIncluded handles the explicit include-list mode: every eligible scheme
// in the list is applied and mutual exclusion is intentionally not enforced.
func (en *Engine) applyIncluded(ctx context.Context, ev evaluator, eligible []Scheme, items []ProductItem, cartAmount float64, include map[string]bool, statuses *statusBook) []CalculatedReward {
	var applied []CalculatedReward
	for _, s := range eligible {
		if !include[s.ID] {
			statuses.set(s, StatusNotApplicable, "not in requested scheme list")
			continue
		}
		rewards := en.evaluateScheme(ctx, ev, s, items, cartAmount)
		if len(rewards) == 0 {
			statuses.set(s, StatusNotApplicable, "conditions not met")
			continue
		}
		applied = append(applied, rewards...)
		statuses.set(s, StatusApplied, "conditions satisfied")
	}
	return applied
}

// schemeCandidate is a group champion awaiting the cross-group ranking.
type schemeCandidate struct {
	scheme   Scheme
	rewards  []CalculatedReward
	priority int
	total    float64
}

// selectSchemes groups eligible schemes by mutual exclusion, finds each
// group's champion in priority order, then ranks champions across groups by
// (priority ascending, total reward descending) and keeps exactly one winner.
func (en *Engine) selectSchemes(ctx context.Context, ev evaluator, eligible []Scheme, items []ProductItem, cartAmount float64, statuses *statusBook) []CalculatedReward {
	groups := make(map[string][]Scheme)
	var order []string
	for _, s := range eligible {
		key := s.MutualExclusionGroup
		if key == "" {
			if hasInvoiceCondition(s) {
				key = invoiceGroup
			} else {
				key = "scheme:" + s.ID
			}
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	var champions []schemeCandidate
	for _, key := range order {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			return SchemePriority(members[i]) < SchemePriority(members[j])
		})
		var champion *schemeCandidate
		for _, s := range members {
			if champion != nil {
				statuses.set(s, StatusBlocked, "mutually exclusive with "+champion.scheme.ID, champion.scheme.ID)
				continue
			}
			rewards := en.evaluateScheme(ctx, ev, s, items, cartAmount)
			if len(rewards) == 0 {
				statuses.set(s, StatusNotApplicable, "conditions not met")
				continue
			}
			champion = &schemeCandidate{
				scheme:   s,
				rewards:  rewards,
				priority: SchemePriority(s),
				total:    totalAmount(rewards),
			}
		}
		if champion != nil {
			champions = append(champions, *champion)
		}
	}
	if len(champions) == 0 {
		return nil
	}

	sort.SliceStable(champions, func(i, j int) bool {
		if champions[i].priority != champions[j].priority {
			return champions[i].priority < champions[j].priority
		}
		return champions[i].total > champions[j].total
	})
	winner := champions[0]
	statuses.set(winner.scheme, StatusApplied, "conditions satisfied")
	for _, c := range champions[1:] {
		statuses.set(c.scheme, StatusBlocked, "blocked by applied scheme "+winner.scheme.ID, winner.scheme.ID)
	}
	return winner.rewards
}

// evaluateScheme runs every condition of one scheme against the cart. Each
// satisfied condition yields one reward; a fresh usage tracker stops later
// conditions from claiming quantities an earlier one already consumed.
func (en *Engine) evaluateScheme(ctx context.Context, ev evaluator, s Scheme, items []ProductItem, cartAmount float64) []CalculatedReward {
	tracker := make(UsageTracker)
	var out []CalculatedReward
	for _, cond := range s.Conditions {
		condItems := tracker.Remaining(items)
		if cond.Type == ConditionInvoice {
			// Invoice conditions act on cart totals, never on the remainder.
			condItems = items
		} else if len(condItems) == 0 {
			continue
		}

		res, err := ev.evaluate(ctx, cond, condItems, cartAmount)
		if err != nil {
			if errors.Is(err, ErrCriteriaShape) {
				// Unrecognised shapes claim the whole cart so later
				// conditions cannot reuse it.
				tracker.Consume(items)
			}
			en.Log.Warn().Err(err).Str("schemeId", s.ID).Str("conditionType", string(cond.Type)).
				Msg("condition evaluation failed")
			continue
		}
		if res == nil {
			continue
		}
		if cond.ProRated && cond.Type != ConditionInvoice {
			prorate(cond, res, cartAmount)
		}

		outcome := computeReward(cond.Reward, res.base, res.appliedQty, res.proratedMin)
		if cond.Type != ConditionInvoice {
			if len(res.matched) > 0 {
				tracker.Consume(res.matched)
			} else {
				tracker.Consume(items)
			}
		}

		out = append(out, CalculatedReward{
			SchemeID:         s.ID,
			SchemeName:       s.Name,
			ConditionType:    cond.Type,
			RewardType:       cond.Reward.Type,
			Amount:           outcome.amount,
			AppliedQuantity:  res.appliedQty,
			Discount:         outcome.discount,
			Description:      fmt.Sprintf("%s: %s", s.Name, res.desc),
			Capped:           outcome.capped,
			OriginalAmount:   outcome.original,
			MaxRewardAmount:  cond.Reward.MaxRewardAmount,
			FreeProducts:     cond.Reward.FreeProducts,
			ProductDiscounts: cond.Reward.ProductDiscounts,
		})
	}
	return out
}

// reportAvailability extends the status book to every warehouse-visible
// scheme, plus explicitly excluded ids that are not otherwise visible.
func (en *Engine) reportAvailability(ctx context.Context, ev evaluator, scope Scope, items []ProductItem, cartAmount float64, filters Filters, candidates []Scheme, statuses *statusBook) {
	excluded := toSet(filters.ExcludeSchemeIDs)
	all, err := en.Schemes.AvailableSchemes(ctx, scope)
	if err != nil {
		en.Log.Warn().Err(err).Msg("available schemes lookup failed, reporting candidates only")
		all = candidates
	}

	appliedIDs := statuses.appliedIDs()
	for _, s := range all {
		if statuses.has(s.ID) {
			continue
		}
		if excluded[s.ID] {
			statuses.set(s, StatusExcluded, "excluded by request")
			continue
		}
		if ok, reason := applicable(s, scope, items); !ok {
			statuses.set(s, StatusNotApplicable, reason)
			continue
		}
		rewards := en.evaluateScheme(ctx, ev, s, items, cartAmount)
		if len(rewards) == 0 {
			statuses.set(s, StatusNotApplicable, "conditions not met")
			continue
		}
		if len(appliedIDs) > 0 {
			statuses.set(s, StatusBlocked, "not selected for this calculation", appliedIDs...)
		} else {
			statuses.set(s, StatusNotApplicable, "not selected for this calculation")
		}
	}

	// Excluded ids the warehouse listing never surfaced are still reported.
	var missing []string
	for _, id := range filters.ExcludeSchemeIDs {
		if !statuses.has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}
	byID, err := en.Schemes.SchemesByID(ctx, missing)
	if err != nil {
		en.Log.Warn().Err(err).Msg("excluded schemes lookup failed")
	}
	found := make(map[string]Scheme, len(byID))
	for _, s := range byID {
		found[s.ID] = s
	}
	for _, id := range missing {
		s, ok := found[id]
		if !ok {
			s = Scheme{ID: id}
		}
		statuses.set(s, StatusExcluded, "excluded by request")
	}
}

// applicable runs the context and cart filters of one scheme. The four
// context allow-lists are ORed against each other; each non-empty product
// dimension list must be hit by at least one cart item.
func applicable(s Scheme, scope Scope, items []ProductItem) (bool, string) {
	at := s.ApplicableTo
	if len(at.WarehouseIDs) > 0 || len(at.ChannelIDs) > 0 || len(at.BusinessTypeIDs) > 0 || len(at.OutletIDs) > 0 {
		ok := containsFold(at.WarehouseIDs, scope.WarehouseID) ||
			containsFold(at.ChannelIDs, scope.ChannelID) ||
			containsFold(at.BusinessTypeIDs, scope.BusinessTypeID) ||
			containsFold(at.OutletIDs, scope.OutletID)
		if !ok {
			return false, "outside scheme applicability context"
		}
	}
	if len(at.ProductIDs) > 0 && !cartHasAny(items, at.ProductIDs, func(it ProductItem) string { return it.ProductID }) {
		return false, "no matching products in cart"
	}
	if len(at.BrandIDs) > 0 && !cartHasAny(items, at.BrandIDs, func(it ProductItem) string { return it.BrandID }) {
		return false, "no matching brands in cart"
	}
	if len(at.CategoryIDs) > 0 && !cartHasAny(items, at.CategoryIDs, func(it ProductItem) string { return it.CategoryID }) {
		return false, "no matching categories in cart"
	}
	if len(at.SubcategoryIDs) > 0 && !cartHasAny(items, at.SubcategoryIDs, func(it ProductItem) string { return it.SubcategoryID }) {
		return false, "no matching subcategories in cart"
	}
	return true, ""
}

func cartHasAny(items []ProductItem, allow []string, key func(ProductItem) string) bool {
	for _, it := range items {
		if containsFold(allow, key(it)) {
			return true
		}
	}
	return false
}

func hasInvoiceCondition(s Scheme) bool {
	for _, c := range s.Conditions {
		if c.Type == ConditionInvoice {
			return true
		}
	}
	return false
}

func totalAmount(rewards []CalculatedReward) float64 {
	var total float64
	for _, r := range rewards {
		total += r.Amount
	}
	return total
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			out[trimmed] = true
		}
	}
	return out
}

// statusBook accumulates per-scheme applicability in first-write-wins,
// insertion-ordered fashion, so repeated calls over the same inputs produce
// identical reports.
type statusBook struct {
	entries map[string]*SchemeApplicability
	order   []string
}

func newStatusBook() *statusBook {
	return &statusBook{entries: make(map[string]*SchemeApplicability)}
}

func (b *statusBook) set(s Scheme, status ApplicabilityStatus, reason string, blockedBy ...string) {
	if existing, ok := b.entries[s.ID]; ok {
		// Applied always wins over earlier provisional states.
		if status == StatusApplied {
			existing.Status = status
			existing.Reason = reason
			existing.BlockedBy = nil
		}
		return
	}
	b.entries[s.ID] = &SchemeApplicability{
		SchemeID:   s.ID,
		SchemeName: s.Name,
		Status:     status,
		Reason:     reason,
		BlockedBy:  blockedBy,
	}
	b.order = append(b.order, s.ID)
}

func (b *statusBook) has(id string) bool {
	_, ok := b.entries[id]
	return ok
}

func (b *statusBook) appliedIDs() []string {
	var out []string
	for _, id := range b.order {
		if b.entries[id].Status == StatusApplied {
			out = append(out, id)
		}
	}
	return out
}

// reportable returns the excluded and blocked entries, in insertion order.
func (b *statusBook) reportable() []SchemeApplicability {
	out := make([]SchemeApplicability, 0, len(b.order))
	for _, id := range b.order {
		entry := b.entries[id]
		if entry.Status == StatusExcluded || entry.Status == StatusBlocked {
			out = append(out, *entry)
		}
	}
	return out
}
