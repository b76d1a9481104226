package schemestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/fieldkart/promo-engine/internal/promo"
)

// DB captures the pgx pool methods the store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists scheme definitions as JSONB documents in Postgres. The
// definition column holds the full scheme; id and warehouse ids are lifted
// into columns for filtering.
type Store struct {
	DB  DB
	Log zerolog.Logger
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CandidateSchemes returns schemes visible to the scope's warehouse that are
// inside their validity window.
func (s *Store) CandidateSchemes(ctx context.Context, scope promo.Scope) ([]promo.Scheme, error) {
	now := s.now()
	rows, err := s.DB.Query(ctx, `
		SELECT definition
		FROM promo_schemes
		WHERE (warehouse_ids = '{}' OR $1 = ANY(warehouse_ids))
		  AND (valid_from IS NULL OR valid_from <= $2)
		  AND (valid_to IS NULL OR valid_to >= $2)
		ORDER BY id`, scope.WarehouseID, now)
	if err != nil {
		return nil, fmt.Errorf("query candidate schemes: %w", err)
	}
	return s.collect(rows)
}

// AvailableSchemes returns every scheme visible to the warehouse regardless of
// validity, for availability reporting.
func (s *Store) AvailableSchemes(ctx context.Context, scope promo.Scope) ([]promo.Scheme, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT definition
		FROM promo_schemes
		WHERE warehouse_ids = '{}' OR $1 = ANY(warehouse_ids)
		ORDER BY id`, scope.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("query available schemes: %w", err)
	}
	return s.collect(rows)
}

// SchemesByID fetches specific schemes by id.
func (s *Store) SchemesByID(ctx context.Context, ids []string) ([]promo.Scheme, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT definition
		FROM promo_schemes
		WHERE id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query schemes by id: %w", err)
	}
	return s.collect(rows)
}

// CreateScheme inserts a new scheme document.
func (s *Store) CreateScheme(ctx context.Context, scheme promo.Scheme) error {
	doc, err := json.Marshal(scheme)
	if err != nil {
		return fmt.Errorf("marshal scheme: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO promo_schemes (id, warehouse_ids, valid_from, valid_to, definition, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		scheme.ID, warehouseIDs(scheme), scheme.ValidFrom, scheme.ValidTo, doc, s.now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return promo.ErrSchemeExists
		}
		return fmt.Errorf("insert scheme: %w", err)
	}
	return nil
}

// UpdateScheme replaces an existing scheme document.
func (s *Store) UpdateScheme(ctx context.Context, scheme promo.Scheme) error {
	doc, err := json.Marshal(scheme)
	if err != nil {
		return fmt.Errorf("marshal scheme: %w", err)
	}
	tag, err := s.DB.Exec(ctx, `
		UPDATE promo_schemes
		SET warehouse_ids = $2, valid_from = $3, valid_to = $4, definition = $5, updated_at = $6
		WHERE id = $1`,
		scheme.ID, warehouseIDs(scheme), scheme.ValidFrom, scheme.ValidTo, doc, s.now())
	if err != nil {
		return fmt.Errorf("update scheme: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrSchemeNotFound
	}
	return nil
}

// ListSchemes returns schemes for the admin listing. An empty warehouse id
// lists everything.
func (s *Store) ListSchemes(ctx context.Context, warehouseID string) ([]promo.Scheme, error) {
	if warehouseID == "" {
		rows, err := s.DB.Query(ctx, `SELECT definition FROM promo_schemes ORDER BY id`)
		if err != nil {
			return nil, fmt.Errorf("list schemes: %w", err)
		}
		return s.collect(rows)
	}
	return s.AvailableSchemes(ctx, promo.Scope{WarehouseID: warehouseID})
}

func (s *Store) collect(rows pgx.Rows) ([]promo.Scheme, error) {
	defer rows.Close()
	var schemes []promo.Scheme
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan scheme: %w", err)
		}
		var scheme promo.Scheme
		if err := json.Unmarshal(doc, &scheme); err != nil {
			s.Log.Warn().Err(err).Msg("skipping malformed scheme document")
			continue
		}
		schemes = append(schemes, scheme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemes: %w", err)
	}
	return schemes, nil
}

func warehouseIDs(scheme promo.Scheme) []string {
	if scheme.ApplicableTo.WarehouseIDs == nil {
		return []string{}
	}
	return scheme.ApplicableTo.WarehouseIDs
}
