package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain error taxonomy. Handlers translate these into HTTP statuses;
// services never touch HTTP concerns.
var (
	// ErrNotFound covers a referenced product/batch/list that is absent or
	// not owned by the caller — ownership violations are indistinguishable
	// from absence on purpose.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict marks uniqueness violations (duplicate product in a list,
	// duplicate product name per user).
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition marks a shopping list state change the lifecycle
	// does not allow (e.g. anything out of archived).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a rejected input (non-positive quantity, missing
// required field).
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// InsufficientStockError reports a consumption request that exceeds what the
// ledger holds. Available always carries the amount the caller could have
// consumed, so the message can be rendered user-facing.
type InsufficientStockError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s", e.Requested, e.Available)
}

// Shortfall is the amount missing to satisfy the request.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}
