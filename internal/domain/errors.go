package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the caller does not own the requested entity.
	ErrForbidden = errors.New("forbidden")
	// ErrNotCancellable indicates the order has progressed past the point
	// where cancellation is allowed.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// ValidationError is a field-level error rendered next to the offending field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field errors from a single form submission.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Error()
}

// OutOfStockError reports that a requested quantity exceeds current stock.
type OutOfStockError struct {
	VariantID string
	InStock   int
	InCart    int
}

func (e *OutOfStockError) Error() string {
	var msg string
	switch e.InStock {
	case 0:
		msg = "Sorry, this product is now out of stock."
	case 1:
		msg = "Sorry, there is only 1 left in stock."
	default:
		msg = fmt.Sprintf("Sorry, there are only %d left in stock.", e.InStock)
	}
	if e.InCart > 0 {
		msg += fmt.Sprintf(" You already have %d in your cart.", e.InCart)
	}
	return msg
}

// UnsupportedRegionError is returned for a region code with no tax table entry.
type UnsupportedRegionError struct {
	Region string
}

func (e *UnsupportedRegionError) Error() string {
	return fmt.Sprintf("unsupported tax region %q", e.Region)
}

// InventoryChangedError aborts an order commit whose lines no longer fit stock.
type InventoryChangedError struct {
	Lines []OutOfStockError
}

func (e *InventoryChangedError) Error() string {
	return fmt.Sprintf("inventory changed for %d line(s)", len(e.Lines))
}
