package schemestore

import (
	"context"
	"sync"
	"time"

	"github.com/fieldkart/promo-engine/internal/promo"
)

// MemorySource is an in-memory promo.SchemeSource used by tests and local
// development.
type MemorySource struct {
	mu      sync.RWMutex
	schemes []promo.Scheme

	// Now overrides validity checks in tests.
	Now func() time.Time
}

// NewMemorySource seeds a memory source with the given schemes.
func NewMemorySource(schemes ...promo.Scheme) *MemorySource {
	return &MemorySource{schemes: schemes}
}

func (m *MemorySource) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// CandidateSchemes returns schemes in their validity window for the warehouse.
func (m *MemorySource) CandidateSchemes(_ context.Context, scope promo.Scope) ([]promo.Scheme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	var out []promo.Scheme
	for _, s := range m.schemes {
		if !warehouseVisible(s, scope.WarehouseID) {
			continue
		}
		if s.ValidFrom != nil && now.Before(*s.ValidFrom) {
			continue
		}
		if s.ValidTo != nil && now.After(*s.ValidTo) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// AvailableSchemes returns every scheme visible to the warehouse.
func (m *MemorySource) AvailableSchemes(_ context.Context, scope promo.Scope) ([]promo.Scheme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []promo.Scheme
	for _, s := range m.schemes {
		if warehouseVisible(s, scope.WarehouseID) {
			out = append(out, s)
		}
	}
	return out, nil
}

// SchemesByID fetches schemes by id.
func (m *MemorySource) SchemesByID(_ context.Context, ids []string) ([]promo.Scheme, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []promo.Scheme
	for _, s := range m.schemes {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

// Add appends a scheme.
func (m *MemorySource) Add(s promo.Scheme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemes = append(m.schemes, s)
}

func warehouseVisible(s promo.Scheme, warehouseID string) bool {
	if len(s.ApplicableTo.WarehouseIDs) == 0 {
		return true
	}
	for _, id := range s.ApplicableTo.WarehouseIDs {
		if id == warehouseID {
			return true
		}
	}
	return false
}
