package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStock rejects a reservation that would drive a
	// book's derived availability negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrBookNotFound means the book row does not exist.
	ErrBookNotFound = errors.New("book not found")
)

// InsufficientStockError carries the quantities involved so handlers
// can tell the client how much is actually left.
type InsufficientStockError struct {
	Requested int
	Available int
}

func NewInsufficientStockError(requested, available int) *InsufficientStockError {
	return &InsufficientStockError{Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
