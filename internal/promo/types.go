package promo

import "time"

// ConditionType identifies the shape of a condition's criteria.
type ConditionType string

// Supported condition shapes.
const (
	ConditionCombo           ConditionType = "combo"
	ConditionAssorted        ConditionType = "assorted"
	ConditionInvoice         ConditionType = "invoice"
	ConditionLineItem        ConditionType = "line_item"
	ConditionFlexibleProduct ConditionType = "flexible_product"
)

// Basis is the measurement dimension a threshold is evaluated in.
type Basis string

// Aggregation bases.
const (
	BasisQuantity Basis = "quantity"
	BasisAmount   Basis = "amount"
	BasisWeight   Basis = "weight"
)

// MatchType controls how combo sub-criteria combine.
type MatchType string

// Combo match modes.
const (
	MatchAll MatchType = "all"
	MatchAny MatchType = "any"
)

// RewardType identifies the benefit a satisfied condition grants.
type RewardType string

// Supported reward kinds.
const (
	RewardDiscountPercent RewardType = "discount_percent"
	RewardDiscountFixed   RewardType = "discount_fixed"
	RewardCashback        RewardType = "cashback"
	RewardLoyaltyPoints   RewardType = "loyalty_points"
	RewardFreeProduct     RewardType = "free_product"
	RewardProductDiscount RewardType = "product_discount"
)

// UnitPerCase relates two units: Numerator units of BUOM equal Denominator
// units of AUOM.
type UnitPerCase struct {
	Numerator   float64 `json:"numerator"`
	BUOM        string  `json:"buom"`
	Denominator float64 `json:"denominator"`
	AUOM        string  `json:"auom"`
}

// ProductItem is one purchased line as supplied by the caller. It is never
// mutated during a calculation.
type ProductItem struct {
	ProductID     string        `json:"productId"`
	Quantity      float64       `json:"quantity"`
	UnitPrice     float64       `json:"unitPrice,omitempty"`
	Weight        float64       `json:"weight,omitempty"` // kg per unit
	UOM           string        `json:"uom,omitempty"`
	BrandID       string        `json:"brandId,omitempty"`
	CategoryID    string        `json:"categoryId,omitempty"`
	SubcategoryID string        `json:"subcategoryId,omitempty"`
	UnitPerCases  []UnitPerCase `json:"unitPerCase,omitempty"`
}

// ApplicableTo restricts where a scheme can fire. An empty list means no
// restriction on that dimension.
type ApplicableTo struct {
	WarehouseIDs    []string `json:"warehouseIds,omitempty"`
	ChannelIDs      []string `json:"channelIds,omitempty"`
	BusinessTypeIDs []string `json:"businessTypeIds,omitempty"`
	OutletIDs       []string `json:"outletIds,omitempty"`
	ProductIDs      []string `json:"productIds,omitempty"`
	BrandIDs        []string `json:"brandIds,omitempty"`
	CategoryIDs     []string `json:"categoryIds,omitempty"`
	SubcategoryIDs  []string `json:"subcategoryIds,omitempty"`
}

// Scheme is a named promotional rule bundle. Schemes are read-only during a
// calculation.
type Scheme struct {
	ID                   string       `json:"schemeId"`
	Name                 string       `json:"schemeName"`
	ValidFrom            *time.Time   `json:"validFrom,omitempty"`
	ValidTo              *time.Time   `json:"validTo,omitempty"`
	ApplicableTo         ApplicableTo `json:"applicableTo"`
	Conditions           []Condition  `json:"conditions"`
	MutualExclusionGroup string       `json:"mutualExclusionGroup,omitempty"`
}

// Condition is one eligibility rule within a scheme. Exactly one criteria
// pointer matching Type is expected to be set; the evaluator switches on Type
// exhaustively.
type Condition struct {
	Type            ConditionType `json:"conditionType"`
	Priority        int           `json:"priority"` // lower means higher precedence
	ProRated        bool          `json:"isProRated,omitempty"`
	HalfApplicable  bool          `json:"isAvailableForHalf,omitempty"`
	MaxApplications int           `json:"maxApplications,omitempty"`

	Combo    *ComboCriteria    `json:"combo,omitempty"`
	Assorted *AssortedCriteria `json:"assorted,omitempty"`
	Invoice  *InvoiceCriteria  `json:"invoice,omitempty"`
	LineItem *LineItemCriteria `json:"lineItem,omitempty"`
	Flexible *FlexibleCriteria `json:"flexibleProduct,omitempty"`

	Reward Reward `json:"reward"`
}

// ComboCriterion is one identifier-plus-threshold leg of a combo condition.
// Exactly one identifier is expected to be set.
type ComboCriterion struct {
	ProductID     string  `json:"productId,omitempty"`
	BrandID       string  `json:"brandId,omitempty"`
	CategoryID    string  `json:"categoryId,omitempty"`
	SubcategoryID string  `json:"subcategoryId,omitempty"`
	Basis         Basis   `json:"aggregationBasis,omitempty"`
	TargetUOM     string  `json:"targetUom,omitempty"`
	MinValue      float64 `json:"minValue,omitempty"`
	MaxValue      float64 `json:"maxValue,omitempty"` // zero means unbounded
}

// ComboCriteria parameterises a combo condition. With MatchAll every
// sub-criterion must hold; with MatchAny matching items are pooled and the
// top-level bounds apply to the pooled value.
type ComboCriteria struct {
	MatchType MatchType        `json:"matchType"`
	Basis     Basis            `json:"aggregationBasis,omitempty"`
	TargetUOM string           `json:"targetUom,omitempty"`
	MinValue  float64          `json:"minValue,omitempty"`
	MaxValue  float64          `json:"maxValue,omitempty"`
	Criteria  []ComboCriterion `json:"criteria"`
}

// AssortedCriterion is one independently evaluated leg of an assorted
// condition. Its bounds are informational; only the summed total is enforced.
type AssortedCriterion struct {
	ProductIDs  []string `json:"productIds,omitempty"`
	BrandIDs    []string `json:"brandIds,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	Basis       Basis    `json:"aggregationBasis,omitempty"`
	TargetUOM   string   `json:"targetUom,omitempty"`
	MinValue    float64  `json:"minValue,omitempty"`
	MaxValue    float64  `json:"maxValue,omitempty"`
}

// AssortedCriteria parameterises an assorted condition. When Criteria is
// empty the flat identifier lists are used in a single pooled aggregation.
type AssortedCriteria struct {
	Basis     Basis               `json:"aggregationBasis,omitempty"`
	TargetUOM string              `json:"targetUom,omitempty"`
	MinValue  float64             `json:"minValue,omitempty"`
	MaxValue  float64             `json:"maxValue,omitempty"`
	Criteria  []AssortedCriterion `json:"criteria,omitempty"`

	ProductIDs     []string `json:"productIds,omitempty"`
	BrandIDs       []string `json:"brandIds,omitempty"`
	CategoryIDs    []string `json:"categoryIds,omitempty"`
	SubcategoryIDs []string `json:"subcategoryIds,omitempty"`
}

// InvoiceCriteria compares the cart total against a [min,max] band.
type InvoiceCriteria struct {
	Basis    Basis   `json:"conditionBasis,omitempty"` // amount or quantity, default amount
	MinValue float64 `json:"minValue,omitempty"`
	MaxValue float64 `json:"maxValue,omitempty"`
}

// UnifiedCriteria is a secondary filter-and-threshold check attached to a
// line-item condition.
type UnifiedCriteria struct {
	ProductIDs  []string `json:"productIds,omitempty"`
	BrandIDs    []string `json:"brandIds,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	Basis       Basis    `json:"aggregationBasis,omitempty"`
	MinValue    float64  `json:"minValue,omitempty"`
}

// LineItemCriteria parameterises a multi-line-item condition.
type LineItemCriteria struct {
	ProductIDs     []string         `json:"productIds,omitempty"`
	BrandIDs       []string         `json:"brandIds,omitempty"`
	CategoryIDs    []string         `json:"categoryIds,omitempty"`
	SubcategoryIDs []string         `json:"subcategoryIds,omitempty"`
	Basis          Basis            `json:"aggregationBasis,omitempty"`
	TargetUOM      string           `json:"targetUom,omitempty"`
	MinLineTotal   float64          `json:"minLineTotal"`
	PricingGroupID string           `json:"pricingGroupId,omitempty"`
	Unified        *UnifiedCriteria `json:"unifiedCriteria,omitempty"`
}

// FlexibleCriteria parameterises a flexible-product condition.
type FlexibleCriteria struct {
	ProductIDs      []string `json:"productIds,omitempty"`
	BrandIDs        []string `json:"brandIds,omitempty"`
	CategoryIDs     []string `json:"categoryIds,omitempty"`
	AllowAnyProduct bool     `json:"allowAnyProduct,omitempty"`
	TargetUOM       string   `json:"targetUom,omitempty"`
	MinValue        float64  `json:"minValue,omitempty"`
	MaxValue        float64  `json:"maxValue,omitempty"`
	MinQuantity     float64  `json:"minQuantity,omitempty"`
	MaxQuantity     float64  `json:"maxQuantity,omitempty"`
}

// FreeProduct is a product granted by a free-product reward.
type FreeProduct struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

// ProductDiscount is a per-product discount granted by a product-discount
// reward.
type ProductDiscount struct {
	ProductID string  `json:"productId"`
	Value     float64 `json:"value"`
}

// Reward is the benefit granted when a condition is satisfied.
type Reward struct {
	Type             RewardType        `json:"type"`
	Value            float64           `json:"value,omitempty"`
	MaxRewardAmount  *float64          `json:"maxRewardAmount,omitempty"`
	FreeProducts     []FreeProduct     `json:"freeProducts,omitempty"`
	ProductDiscounts []ProductDiscount `json:"productDiscounts,omitempty"`
}

// CalculatedReward is the evaluator's output for one satisfied condition.
type CalculatedReward struct {
	SchemeID         string            `json:"schemeId"`
	SchemeName       string            `json:"schemeName"`
	ConditionType    ConditionType     `json:"conditionType"`
	RewardType       RewardType        `json:"rewardType"`
	Amount           float64           `json:"amount"`
	AppliedQuantity  float64           `json:"appliedQuantity"`
	Discount         float64           `json:"discount"`
	Description      string            `json:"description"`
	Capped           bool              `json:"isCapped"`
	OriginalAmount   float64           `json:"originalAmount"`
	MaxRewardAmount  *float64          `json:"maxRewardAmount,omitempty"`
	FreeProducts     []FreeProduct     `json:"freeProducts,omitempty"`
	ProductDiscounts []ProductDiscount `json:"productDiscounts,omitempty"`
}

// ApplicabilityStatus is the per-scheme outcome of a calculation.
type ApplicabilityStatus string

// Scheme applicability states.
const (
	StatusApplied       ApplicabilityStatus = "applied"
	StatusBlocked       ApplicabilityStatus = "blocked"
	StatusNotApplicable ApplicabilityStatus = "not_applicable"
	StatusExcluded      ApplicabilityStatus = "excluded"
)

// SchemeApplicability reports why a scheme was or was not applied.
type SchemeApplicability struct {
	SchemeID   string              `json:"schemeId"`
	SchemeName string              `json:"schemeName"`
	Status     ApplicabilityStatus `json:"status"`
	Reason     string              `json:"reason,omitempty"`
	BlockedBy  []string            `json:"blockedBy,omitempty"`
}

// Scope is the commercial context a calculation runs in.
type Scope struct {
	WarehouseID    string `json:"warehouseId"`
	ChannelID      string `json:"channelId,omitempty"`
	BusinessTypeID string `json:"businessTypeId,omitempty"`
	OutletID       string `json:"outletId,omitempty"`
}

// Filters narrows which schemes participate in a calculation. A non-empty
// include list applies every listed eligible scheme and bypasses mutual
// exclusion; excluded ids are always reported as excluded.
type Filters struct {
	IncludeSchemeIDs []string `json:"includeSchemeIds,omitempty"`
	ExcludeSchemeIDs []string `json:"excludeSchemeIds,omitempty"`
}

// Summary aggregates the applied rewards of one calculation.
type Summary struct {
	TotalDiscount      float64           `json:"totalDiscount"`
	TotalRewardAmount  float64           `json:"totalRewardAmount"`
	FreeProducts       []FreeProduct     `json:"freeProducts,omitempty"`
	DiscountedProducts []ProductDiscount `json:"discountedProducts,omitempty"`
}

// Result is the full outcome of one calculation.
type Result struct {
	TotalDiscount     float64               `json:"totalDiscount"`
	TotalRewardAmount float64               `json:"totalRewardAmount"`
	AppliedSchemes    []CalculatedReward    `json:"appliedSchemes"`
	AvailableSchemes  []SchemeApplicability `json:"availableSchemes"`
	Summary           Summary               `json:"summary"`
}

// SchemePriority is the scheme-wide priority: the minimum priority across its
// conditions, lower winning.
func SchemePriority(s Scheme) int {
	if len(s.Conditions) == 0 {
		return int(^uint(0) >> 1)
	}
	min := s.Conditions[0].Priority
	for _, c := range s.Conditions[1:] {
		if c.Priority < min {
			min = c.Priority
		}
	}
	return min
}
