package promo

import "errors"

var (
	// ErrNotConfigured is returned when the engine is missing a required collaborator.
	ErrNotConfigured = errors.New("promo: engine not configured")
	// ErrNoProducts is returned when the cart is empty.
	ErrNoProducts = errors.New("promo: no products to evaluate")
	// ErrMissingWarehouse is returned when the calculation scope has no warehouse.
	ErrMissingWarehouse = errors.New("promo: warehouse id is required")
	// ErrCriteriaShape indicates a condition whose criteria payload does not match its type.
	ErrCriteriaShape = errors.New("promo: criteria shape does not match condition type")
)
