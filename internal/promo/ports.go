package promo

import "context"

// UOMDetails describes a product's measurement setup as stored in master data.
type UOMDetails struct {
	BaseUOM      string        `json:"baseUom,omitempty"`
	UnitPerCases []UnitPerCase `json:"unitPerCase,omitempty"`
}

// PricingGroupMapping relates a pricing group to a product and, optionally, a
// warehouse. An empty WarehouseID means the mapping holds everywhere.
type PricingGroupMapping struct {
	GroupID     string `json:"groupId"`
	ProductID   string `json:"productId,omitempty"`
	WarehouseID string `json:"warehouseId,omitempty"`
}

// SchemeSource supplies scheme definitions. The engine never fetches or
// persists schemes itself.
type SchemeSource interface {
	// CandidateSchemes returns the schemes that may apply to the given scope.
	CandidateSchemes(ctx context.Context, scope Scope) ([]Scheme, error)
	// AvailableSchemes returns every scheme visible to the scope's warehouse,
	// used to build the full applicability report.
	AvailableSchemes(ctx context.Context, scope Scope) ([]Scheme, error)
	// SchemesByID resolves specific scheme ids, used to report explicitly
	// excluded schemes that are not otherwise visible.
	SchemesByID(ctx context.Context, ids []string) ([]Scheme, error)
}

// ProductDataSource supplies product master data. Every method may fail or the
// whole source may be absent; callers substitute conservative defaults
// (capacity zero, no conversion, pricing-group checks pass).
type ProductDataSource interface {
	CapacityInKg(ctx context.Context, productID string) (float64, error)
	UOMDetails(ctx context.Context, productID string) (*UOMDetails, error)
	PricingGroupProducts(ctx context.Context, productIDs []string) ([]PricingGroupMapping, error)
	PricingGroups(ctx context.Context, groupIDs []string) ([]PricingGroupMapping, error)
}
