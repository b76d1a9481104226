package schemestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldkart/promo-engine/internal/promo"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestMemorySourceValidityWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	src := NewMemorySource(
		promo.Scheme{ID: "live", ValidFrom: timePtr(now.Add(-time.Hour)), ValidTo: timePtr(now.Add(time.Hour))},
		promo.Scheme{ID: "expired", ValidTo: timePtr(now.Add(-time.Hour))},
		promo.Scheme{ID: "future", ValidFrom: timePtr(now.Add(time.Hour))},
		promo.Scheme{ID: "open-ended"},
	)
	src.Now = func() time.Time { return now }

	got, err := src.CandidateSchemes(context.Background(), promo.Scope{WarehouseID: "wh-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "live", got[0].ID)
	require.Equal(t, "open-ended", got[1].ID)
}

func TestMemorySourceWarehouseFilter(t *testing.T) {
	src := NewMemorySource(
		promo.Scheme{ID: "scoped", ApplicableTo: promo.ApplicableTo{WarehouseIDs: []string{"wh-2"}}},
		promo.Scheme{ID: "global"},
	)

	got, err := src.AvailableSchemes(context.Background(), promo.Scope{WarehouseID: "wh-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "global", got[0].ID)

	got, err = src.AvailableSchemes(context.Background(), promo.Scope{WarehouseID: "wh-2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestMemorySourceSchemesByID(t *testing.T) {
	src := NewMemorySource(
		promo.Scheme{ID: "a"},
		promo.Scheme{ID: "b"},
	)

	got, err := src.SchemesByID(context.Background(), []string{"b", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].ID)
}

func TestMemorySourceAdd(t *testing.T) {
	src := NewMemorySource()
	src.Add(promo.Scheme{ID: "new"})

	got, err := src.AvailableSchemes(context.Background(), promo.Scope{WarehouseID: "wh-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
