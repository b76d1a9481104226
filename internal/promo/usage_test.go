package promo

import "testing"

func TestUsageTrackerRemaining(t *testing.T) {
	tracker := make(UsageTracker)
	items := []ProductItem{
		{ProductID: "p1", Quantity: 10},
		{ProductID: "p2", Quantity: 4},
	}
	tracker.Consume([]ProductItem{{ProductID: "p1", Quantity: 6}})

	left := tracker.Remaining(items)
	if len(left) != 2 {
		t.Fatalf("expected both products to remain, got %d", len(left))
	}
	if left[0].Quantity != 4 {
		t.Fatalf("expected 4 of p1 left, got %f", left[0].Quantity)
	}
	if left[1].Quantity != 4 {
		t.Fatalf("expected p2 untouched, got %f", left[1].Quantity)
	}
}

func TestUsageTrackerDropsExhaustedItems(t *testing.T) {
	tracker := make(UsageTracker)
	items := []ProductItem{{ProductID: "p1", Quantity: 3}}
	tracker.Consume(items)

	if left := tracker.Remaining(items); len(left) != 0 {
		t.Fatalf("expected fully consumed item to be dropped, got %d items", len(left))
	}
}

func TestUsageTrackerEmptyPassesThrough(t *testing.T) {
	tracker := make(UsageTracker)
	items := []ProductItem{{ProductID: "p1", Quantity: 3}}
	if left := tracker.Remaining(items); len(left) != 1 || left[0].Quantity != 3 {
		t.Fatalf("expected untouched cart back, got %+v", left)
	}
}
