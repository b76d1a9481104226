package productdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/fieldkart/promo-engine/internal/promo"
)

// DB captures the pgx pool methods the source needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Source serves product master data from Postgres with a Redis read-through
// cache in front of the per-product lookups.
type Source struct {
	DB    DB
	Cache *Cache
	Log   zerolog.Logger
}

// CapacityInKg returns a product's per-unit weight in kilograms. Unknown
// products return zero without an error.
func (s *Source) CapacityInKg(ctx context.Context, productID string) (float64, error) {
	key := "promo:capacity:" + productID
	var cached float64
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	var capacity float64
	err := s.DB.QueryRow(ctx,
		`SELECT capacity_kg FROM products WHERE id = $1`, productID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query capacity: %w", err)
	}
	if err := s.Cache.SetJSON(ctx, key, capacity); err != nil {
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("capacity cache write failed")
	}
	return capacity, nil
}

// UOMDetails returns a product's base unit and conversion factors. Unknown
// products return nil without an error.
func (s *Source) UOMDetails(ctx context.Context, productID string) (*promo.UOMDetails, error) {
	key := "promo:uom:" + productID
	var cached promo.UOMDetails
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	var baseUOM string
	err := s.DB.QueryRow(ctx,
		`SELECT base_uom FROM products WHERE id = $1`, productID).Scan(&baseUOM)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query base uom: %w", err)
	}

	rows, err := s.DB.Query(ctx, `
		SELECT numerator, buom, denominator, auom
		FROM product_uom_conversions
		WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("query uom conversions: %w", err)
	}
	defer rows.Close()

	details := promo.UOMDetails{BaseUOM: strings.TrimSpace(baseUOM)}
	for rows.Next() {
		var upc promo.UnitPerCase
		if err := rows.Scan(&upc.Numerator, &upc.BUOM, &upc.Denominator, &upc.AUOM); err != nil {
			return nil, fmt.Errorf("scan uom conversion: %w", err)
		}
		details.UnitPerCases = append(details.UnitPerCases, upc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uom conversions: %w", err)
	}

	if err := s.Cache.SetJSON(ctx, key, details); err != nil {
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("uom cache write failed")
	}
	return &details, nil
}

// PricingGroupProducts returns pricing-group memberships for the given products.
func (s *Source) PricingGroupProducts(ctx context.Context, productIDs []string) ([]promo.PricingGroupMapping, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT group_id, product_id, COALESCE(warehouse_id, '')
		FROM pricing_group_products
		WHERE product_id = ANY($1)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query pricing group products: %w", err)
	}
	return collectMappings(rows)
}

// PricingGroups returns warehouse mappings for the given pricing groups.
func (s *Source) PricingGroups(ctx context.Context, groupIDs []string) ([]promo.PricingGroupMapping, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT group_id, COALESCE(product_id, ''), COALESCE(warehouse_id, '')
		FROM pricing_groups
		WHERE group_id = ANY($1)`, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("query pricing groups: %w", err)
	}
	return collectMappings(rows)
}

func collectMappings(rows pgx.Rows) ([]promo.PricingGroupMapping, error) {
	defer rows.Close()
	var out []promo.PricingGroupMapping
	for rows.Next() {
		var m promo.PricingGroupMapping
		if err := rows.Scan(&m.GroupID, &m.ProductID, &m.WarehouseID); err != nil {
			return nil, fmt.Errorf("scan pricing group mapping: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing group mappings: %w", err)
	}
	return out, nil
}
