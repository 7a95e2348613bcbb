package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/econstore/internal/domain/product"
)

// Sentinel errors for order request validation.
var (
	ErrEmptyItems    = errors.New("items required")
	ErrInvalidTotal  = errors.New("total must not be negative")
	ErrInvalidUser   = errors.New("user id must be greater than 0")
	ErrInvalidStatus = errors.New("unknown order status")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// StockUpdateFailedError wraps a failed stock decrement. The transaction
// was rolled back.
type StockUpdateFailedError struct {
	ProductID int64
	Err       error
}

func (e *StockUpdateFailedError) Error() string {
	if errors.Is(e.Err, product.ErrInsufficientStock) {
		return fmt.Sprintf("insufficient stock for product %d: transaction cancelled", e.ProductID)
	}
	return fmt.Sprintf("%v: transaction cancelled", e.Err)
}

func (e *StockUpdateFailedError) Unwrap() error {
	return e.Err
}

// ItemInsertFailedError wraps a failed line item insert. The transaction was
// rolled back, undoing the stock decrements.
type ItemInsertFailedError struct {
	Err error
}

func (e *ItemInsertFailedError) Error() string {
	return fmt.Sprintf("%v: transaction cancelled", e.Err)
}

func (e *ItemInsertFailedError) Unwrap() error {
	return e.Err
}
