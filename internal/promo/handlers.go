package promo

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fieldkart/promo-engine/internal/common"
	"github.com/fieldkart/promo-engine/internal/obs"
)

// Handler exposes the calculation endpoint.
type Handler struct {
	Engine   *Engine
	Validate *validator.Validate
}

type calculateRequest struct {
	Products []ProductItem `json:"products" validate:"required,min=1"`
	Context  Scope         `json:"context" validate:"required"`
	Filters  Filters       `json:"filters"`
}

// Calculate evaluates the posted cart against the scheme catalog.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo engine not configured", nil)
		return
	}
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}

	start := time.Now()
	result, err := h.Engine.Calculate(r.Context(), req.Products, req.Context, req.Filters)
	obs.ObserveCalculation(time.Since(start), err == nil)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoProducts), errors.Is(err, ErrMissingWarehouse):
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, ErrNotConfigured):
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusUnprocessableEntity, "CALCULATION_FAILED", err.Error(), nil)
		}
		return
	}
	obs.CountAppliedSchemes(len(result.AppliedSchemes))
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
