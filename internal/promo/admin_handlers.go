package promo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldkart/promo-engine/internal/common"
)

// Store-side errors surfaced by scheme storage implementations.
var (
	// ErrSchemeExists indicates a create collided with an existing scheme id.
	ErrSchemeExists = errors.New("promo: scheme id already exists")
	// ErrSchemeNotFound indicates the scheme id is unknown to the store.
	ErrSchemeNotFound = errors.New("promo: scheme not found")
)

// SchemeStore captures the storage methods the admin endpoints require.
type SchemeStore interface {
	CreateScheme(ctx context.Context, s Scheme) error
	UpdateScheme(ctx context.Context, s Scheme) error
	ListSchemes(ctx context.Context, warehouseID string) ([]Scheme, error)
}

// AdminHandler exposes scheme management endpoints.
type AdminHandler struct {
	Store    SchemeStore
	Validate *validator.Validate
}

type schemePayload struct {
	Scheme
	// Shadowed for validation; the embedded fields carry the data.
	ID   string `json:"schemeId" validate:"required"`
	Name string `json:"schemeName" validate:"required"`
}

// Create inserts a new scheme definition.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "scheme store not configured", nil)
		return
	}
	scheme, ok := h.decodeScheme(w, r)
	if !ok {
		return
	}
	if err := h.Store.CreateScheme(r.Context(), scheme); err != nil {
		if errors.Is(err, ErrSchemeExists) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "scheme id already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create scheme", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": scheme})
}

// Update replaces an existing scheme identified by id.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "scheme store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "scheme id is required", nil)
		return
	}
	scheme, ok := h.decodeScheme(w, r)
	if !ok {
		return
	}
	scheme.ID = id
	if err := h.Store.UpdateScheme(r.Context(), scheme); err != nil {
		if errors.Is(err, ErrSchemeNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "scheme not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update scheme", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": scheme})
}

// List returns the schemes visible to a warehouse.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "scheme store not configured", nil)
		return
	}
	warehouseID := strings.TrimSpace(r.URL.Query().Get("warehouseId"))
	schemes, err := h.Store.ListSchemes(r.Context(), warehouseID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list schemes", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": schemes})
}

func (h *AdminHandler) decodeScheme(w http.ResponseWriter, r *http.Request) (Scheme, bool) {
	var payload schemePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Scheme{}, false
	}
	payload.Scheme.ID = payload.ID
	payload.Scheme.Name = payload.Name
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return Scheme{}, false
		}
	}
	return payload.Scheme, true
}
