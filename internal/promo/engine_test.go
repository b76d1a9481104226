package promo

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type stubSchemes struct {
	candidates []Scheme
	available  []Scheme
	byID       map[string]Scheme
	candErr    error
}

func (s *stubSchemes) CandidateSchemes(_ context.Context, _ Scope) ([]Scheme, error) {
	if s.candErr != nil {
		return nil, s.candErr
	}
	return s.candidates, nil
}

func (s *stubSchemes) AvailableSchemes(_ context.Context, _ Scope) ([]Scheme, error) {
	if s.available != nil {
		return s.available, nil
	}
	return s.candidates, nil
}

func (s *stubSchemes) SchemesByID(_ context.Context, ids []string) ([]Scheme, error) {
	var out []Scheme
	for _, id := range ids {
		if scheme, ok := s.byID[id]; ok {
			out = append(out, scheme)
		}
	}
	return out, nil
}

func newTestEngine(schemes *stubSchemes) *Engine {
	return &Engine{Schemes: schemes, Log: zerolog.Nop()}
}

func invoiceScheme(id, name string, priority int, min float64, reward Reward) Scheme {
	return Scheme{
		ID:   id,
		Name: name,
		Conditions: []Condition{{
			Type:     ConditionInvoice,
			Priority: priority,
			Invoice:  &InvoiceCriteria{MinValue: min},
			Reward:   reward,
		}},
	}
}

func testCart() []ProductItem {
	return []ProductItem{
		{ProductID: "p1", Quantity: 5, UnitPrice: 100},
		{ProductID: "p2", Quantity: 5, UnitPrice: 100},
	}
}

func TestCalculateInputValidation(t *testing.T) {
	en := newTestEngine(&stubSchemes{})

	if _, err := en.Calculate(context.Background(), nil, Scope{WarehouseID: "wh-1"}, Filters{}); !errors.Is(err, ErrNoProducts) {
		t.Fatalf("expected ErrNoProducts, got %v", err)
	}
	if _, err := en.Calculate(context.Background(), testCart(), Scope{}, Filters{}); !errors.Is(err, ErrMissingWarehouse) {
		t.Fatalf("expected ErrMissingWarehouse, got %v", err)
	}

	var unset *Engine
	if _, err := unset.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCalculateInvoicePercentWithCap(t *testing.T) {
	scheme := invoiceScheme("s1", "Big Basket", 1, 500,
		Reward{Type: RewardDiscountPercent, Value: 10, MaxRewardAmount: floatPtr(100)})
	en := newTestEngine(&stubSchemes{candidates: []Scheme{scheme}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 1 {
		t.Fatalf("expected 1 applied reward, got %d", len(result.AppliedSchemes))
	}
	r := result.AppliedSchemes[0]
	if r.Amount != 100 {
		t.Fatalf("expected capped amount 100, got %f", r.Amount)
	}
	if !r.Capped {
		t.Fatalf("amount equal to the cap must be flagged as capped")
	}
	if result.TotalDiscount != 100 {
		t.Fatalf("expected total discount 100, got %f", result.TotalDiscount)
	}
}

func TestCalculateMutualExclusionPriorityWins(t *testing.T) {
	a := invoiceScheme("a", "Scheme A", 1, 500, Reward{Type: RewardDiscountPercent, Value: 10})
	b := invoiceScheme("b", "Scheme B", 2, 100, Reward{Type: RewardDiscountFixed, Value: 500})
	a.MutualExclusionGroup = "summer"
	b.MutualExclusionGroup = "summer"
	en := newTestEngine(&stubSchemes{candidates: []Scheme{b, a}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 1 || result.AppliedSchemes[0].SchemeID != "a" {
		t.Fatalf("expected scheme a to win, got %+v", result.AppliedSchemes)
	}

	var blocked *SchemeApplicability
	for i := range result.AvailableSchemes {
		if result.AvailableSchemes[i].SchemeID == "b" {
			blocked = &result.AvailableSchemes[i]
		}
	}
	if blocked == nil {
		t.Fatalf("expected scheme b in the applicability report")
	}
	if blocked.Status != StatusBlocked {
		t.Fatalf("expected blocked status, got %s", blocked.Status)
	}
	if len(blocked.BlockedBy) != 1 || blocked.BlockedBy[0] != "a" {
		t.Fatalf("expected blockedBy [a], got %v", blocked.BlockedBy)
	}
}

func TestCalculateInvoiceSchemesShareImplicitGroup(t *testing.T) {
	a := invoiceScheme("a", "Scheme A", 1, 500, Reward{Type: RewardDiscountPercent, Value: 10})
	b := invoiceScheme("b", "Scheme B", 2, 100, Reward{Type: RewardDiscountFixed, Value: 500})
	en := newTestEngine(&stubSchemes{candidates: []Scheme{a, b}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 1 || result.AppliedSchemes[0].SchemeID != "a" {
		t.Fatalf("invoice schemes must be mutually exclusive without a declared group, got %+v", result.AppliedSchemes)
	}
}

func TestCalculateCrossGroupSingleWinner(t *testing.T) {
	flexible := func(id string, priority int, value float64) Scheme {
		return Scheme{
			ID:   id,
			Name: id,
			Conditions: []Condition{{
				Type:     ConditionFlexibleProduct,
				Priority: priority,
				Flexible: &FlexibleCriteria{AllowAnyProduct: true, MinValue: 100},
				Reward:   Reward{Type: RewardDiscountFixed, Value: value},
			}},
		}
	}
	en := newTestEngine(&stubSchemes{candidates: []Scheme{flexible("x", 2, 90), flexible("y", 1, 40)}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 1 || result.AppliedSchemes[0].SchemeID != "y" {
		t.Fatalf("expected priority to beat reward size across groups, got %+v", result.AppliedSchemes)
	}
}

func TestCalculateExcludeFilter(t *testing.T) {
	a := invoiceScheme("a", "Scheme A", 1, 500, Reward{Type: RewardDiscountPercent, Value: 10})
	b := invoiceScheme("b", "Scheme B", 2, 100, Reward{Type: RewardDiscountFixed, Value: 50})
	en := newTestEngine(&stubSchemes{candidates: []Scheme{a, b}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"},
		Filters{ExcludeSchemeIDs: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 1 || result.AppliedSchemes[0].SchemeID != "b" {
		t.Fatalf("expected scheme b after excluding a, got %+v", result.AppliedSchemes)
	}

	found := false
	for _, s := range result.AvailableSchemes {
		if s.SchemeID == "a" && s.Status == StatusExcluded {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected scheme a reported as excluded, got %+v", result.AvailableSchemes)
	}
}

func TestCalculateExcludedUnknownSchemeStillReported(t *testing.T) {
	en := newTestEngine(&stubSchemes{
		byID: map[string]Scheme{"ghost": {ID: "ghost", Name: "Ghost"}},
	})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"},
		Filters{ExcludeSchemeIDs: []string{"ghost"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AvailableSchemes) != 1 || result.AvailableSchemes[0].SchemeID != "ghost" {
		t.Fatalf("expected the unknown excluded id reported, got %+v", result.AvailableSchemes)
	}
	if result.AvailableSchemes[0].Status != StatusExcluded {
		t.Fatalf("expected excluded status, got %s", result.AvailableSchemes[0].Status)
	}
}

func TestCalculateIncludeListBypassesExclusion(t *testing.T) {
	a := invoiceScheme("a", "Scheme A", 1, 500, Reward{Type: RewardDiscountPercent, Value: 10})
	b := invoiceScheme("b", "Scheme B", 2, 100, Reward{Type: RewardDiscountFixed, Value: 50})
	a.MutualExclusionGroup = "summer"
	b.MutualExclusionGroup = "summer"
	en := newTestEngine(&stubSchemes{candidates: []Scheme{a, b}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"},
		Filters{IncludeSchemeIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 2 {
		t.Fatalf("include mode must apply every listed scheme, got %d", len(result.AppliedSchemes))
	}
}

func TestCalculateWarehouseScopeFiltersScheme(t *testing.T) {
	scheme := invoiceScheme("a", "Scheme A", 1, 500, Reward{Type: RewardDiscountPercent, Value: 10})
	scheme.ApplicableTo.WarehouseIDs = []string{"other-wh"}
	en := newTestEngine(&stubSchemes{candidates: []Scheme{scheme}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 0 {
		t.Fatalf("expected no applied schemes outside the warehouse scope, got %+v", result.AppliedSchemes)
	}
}

func TestCalculateSchemeSourceErrorIsFatal(t *testing.T) {
	en := newTestEngine(&stubSchemes{candErr: errors.New("db down")})
	if _, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{}); err == nil {
		t.Fatalf("expected candidate scheme fetch failure to surface")
	}
}

func TestCalculateIdempotent(t *testing.T) {
	a := invoiceScheme("a", "Scheme A", 1, 500, Reward{Type: RewardDiscountPercent, Value: 10})
	b := invoiceScheme("b", "Scheme B", 2, 100, Reward{Type: RewardDiscountFixed, Value: 50})
	en := newTestEngine(&stubSchemes{candidates: []Scheme{a, b}})

	first, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs must yield identical results:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCalculateSummaryCollectsProductRewards(t *testing.T) {
	scheme := Scheme{
		ID:   "bundle",
		Name: "Bundle",
		Conditions: []Condition{
			{
				Type:     ConditionFlexibleProduct,
				Priority: 1,
				Flexible: &FlexibleCriteria{AllowAnyProduct: true, MinValue: 100},
				Reward: Reward{
					Type: RewardProductDiscount,
					ProductDiscounts: []ProductDiscount{
						{ProductID: "p1", Value: 15},
						{ProductID: "p2", Value: 10},
					},
				},
			},
			{
				Type:     ConditionInvoice,
				Priority: 2,
				Invoice:  &InvoiceCriteria{MinValue: 500},
				Reward: Reward{
					Type:         RewardFreeProduct,
					FreeProducts: []FreeProduct{{ProductID: "p9", Quantity: 2}},
				},
			},
		},
	}
	en := newTestEngine(&stubSchemes{candidates: []Scheme{scheme}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 2 {
		t.Fatalf("expected both conditions to yield rewards, got %d", len(result.AppliedSchemes))
	}

	if len(result.Summary.FreeProducts) != 1 {
		t.Fatalf("expected 1 free product in the summary, got %+v", result.Summary.FreeProducts)
	}
	free := result.Summary.FreeProducts[0]
	if free.ProductID != "p9" || free.Quantity != 2 {
		t.Fatalf("expected free product p9 x2, got %+v", free)
	}

	if len(result.Summary.DiscountedProducts) != 2 {
		t.Fatalf("expected 2 discounted products in the summary, got %+v", result.Summary.DiscountedProducts)
	}
	if result.Summary.DiscountedProducts[0].ProductID != "p1" || result.Summary.DiscountedProducts[0].Value != 15 {
		t.Fatalf("expected p1 discounted by 15, got %+v", result.Summary.DiscountedProducts[0])
	}

	// Product discounts carry money, free products do not.
	if result.TotalDiscount != 25 || result.TotalRewardAmount != 25 {
		t.Fatalf("expected totals 25/25, got %f/%f", result.TotalDiscount, result.TotalRewardAmount)
	}
	if result.Summary.TotalDiscount != result.TotalDiscount {
		t.Fatalf("summary total %f diverges from result total %f", result.Summary.TotalDiscount, result.TotalDiscount)
	}
}

func TestCalculateMultiConditionUsage(t *testing.T) {
	// Two flexible conditions on the same scheme: the first claims the whole
	// cart, so the second finds nothing left.
	scheme := Scheme{
		ID:   "multi",
		Name: "Multi",
		Conditions: []Condition{
			{
				Type:     ConditionFlexibleProduct,
				Priority: 1,
				Flexible: &FlexibleCriteria{AllowAnyProduct: true, MinValue: 100},
				Reward:   Reward{Type: RewardDiscountFixed, Value: 10},
			},
			{
				Type:     ConditionFlexibleProduct,
				Priority: 2,
				Flexible: &FlexibleCriteria{AllowAnyProduct: true, MinValue: 100},
				Reward:   Reward{Type: RewardDiscountFixed, Value: 20},
			},
		},
	}
	en := newTestEngine(&stubSchemes{candidates: []Scheme{scheme}})

	result, err := en.Calculate(context.Background(), testCart(), Scope{WarehouseID: "wh-1"}, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AppliedSchemes) != 1 {
		t.Fatalf("expected the second condition to be starved of quantity, got %d rewards", len(result.AppliedSchemes))
	}
	if result.AppliedSchemes[0].Amount != 10 {
		t.Fatalf("expected the first condition's reward, got %f", result.AppliedSchemes[0].Amount)
	}
}
