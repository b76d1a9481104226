package promo

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestComputeRewardPercent(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountPercent, Value: 10}, 1000, 1, 0)
	if out.amount != 100 {
		t.Fatalf("expected 100, got %f", out.amount)
	}
	if out.discount != 100 {
		t.Fatalf("expected discount 100, got %f", out.discount)
	}
	if out.capped {
		t.Fatalf("uncapped reward flagged as capped")
	}
}

func TestComputeRewardCapAtEquality(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountPercent, Value: 10, MaxRewardAmount: floatPtr(100)}, 1000, 1, 0)
	if !out.capped {
		t.Fatalf("amount equal to the cap must count as capped")
	}
	if out.amount != 100 || out.original != 100 {
		t.Fatalf("expected amount and original 100, got %f / %f", out.amount, out.original)
	}
}

func TestComputeRewardCapClamps(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountPercent, Value: 20, MaxRewardAmount: floatPtr(100)}, 1000, 1, 0)
	if !out.capped {
		t.Fatalf("expected capped")
	}
	if out.amount != 100 {
		t.Fatalf("expected clamped amount 100, got %f", out.amount)
	}
	if out.original != 200 {
		t.Fatalf("expected original 200, got %f", out.original)
	}
}

func TestComputeRewardPercentProratedMultiplier(t *testing.T) {
	// appliedQty 2 scales the percentage before applying it to the base.
	out := computeReward(Reward{Type: RewardDiscountPercent, Value: 5}, 1250, 2, 500)
	if out.amount != 125 {
		t.Fatalf("expected 1250 * 10%% = 125, got %f", out.amount)
	}
}

func TestComputeRewardPercentProratedMinFallback(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountPercent, Value: 10}, 1250, 1, 500)
	if out.amount != 250 {
		t.Fatalf("expected 1250 * 20%% = 250, got %f", out.amount)
	}
}

func TestComputeRewardFixedMultiplied(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountFixed, Value: 50}, 0, 3, 0)
	if out.amount != 150 {
		t.Fatalf("expected 150, got %f", out.amount)
	}
}

func TestComputeRewardFixedProrated(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountFixed, Value: 50}, 1250, 1, 500)
	if out.amount != 100 {
		t.Fatalf("expected 50 * floor(1250/500) = 100, got %f", out.amount)
	}
}

func TestComputeRewardCashbackNoDiscount(t *testing.T) {
	out := computeReward(Reward{Type: RewardCashback, Value: 75}, 1000, 1, 0)
	if out.amount != 75 {
		t.Fatalf("expected 75, got %f", out.amount)
	}
	if out.discount != 0 {
		t.Fatalf("cashback must not contribute to discount, got %f", out.discount)
	}
}

func TestComputeRewardFreeProductZeroAmount(t *testing.T) {
	out := computeReward(Reward{Type: RewardFreeProduct, Value: 99, FreeProducts: []FreeProduct{{ProductID: "p1", Quantity: 1}}}, 1000, 1, 0)
	if out.amount != 0 {
		t.Fatalf("free product rewards carry no monetary amount, got %f", out.amount)
	}
}

func TestComputeRewardProductDiscountSums(t *testing.T) {
	out := computeReward(Reward{
		Type: RewardProductDiscount,
		ProductDiscounts: []ProductDiscount{
			{ProductID: "p1", Value: 10.5},
			{ProductID: "p2", Value: 4.5},
		},
	}, 0, 1, 0)
	if out.amount != 15 {
		t.Fatalf("expected 15, got %f", out.amount)
	}
	if out.discount != 15 {
		t.Fatalf("expected discount 15, got %f", out.discount)
	}
}

func TestComputeRewardNegativeClampedToZero(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountFixed, Value: -20}, 0, 1, 0)
	if out.amount != 0 {
		t.Fatalf("expected negative reward clamped to 0, got %f", out.amount)
	}
}

func TestComputeRewardTwoDecimalRounding(t *testing.T) {
	out := computeReward(Reward{Type: RewardDiscountPercent, Value: 7.5}, 19.99, 1, 0)
	if out.amount != 1.5 {
		t.Fatalf("expected 1.49925 rounded to 1.5, got %f", out.amount)
	}
}
