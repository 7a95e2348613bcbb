package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/econstore/internal/dbtx"
)

// Sentinel errors for product lookups and stock changes.
var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  *int64
	ImageURL    string
}

// NewProduct holds the fields accepted when creating a product.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  *int64
	ImageURL    string
}

// Created identifies a freshly inserted product.
type Created struct {
	ID   int64
	Name string
}

// Filter narrows product listings. Zero values disable a condition.
type Filter struct {
	CategoryID  int64
	Search      string
	InStockOnly bool
}

// InsufficientStockError indicates a stock change that would leave the
// product with a negative quantity.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Is reports ErrInsufficientStock as a match so callers can use errors.Is.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Repository defines product persistence. Every method runs on the supplied
// Querier, which is either the pool or an open transaction.
type Repository interface {
	GetByID(ctx context.Context, q dbtx.Querier, id int64) (*Product, error)
	List(ctx context.Context, q dbtx.Querier, f Filter) ([]Product, error)
	Create(ctx context.Context, q dbtx.Querier, p NewProduct) (*Created, error)

	// UpdateStock applies delta (negative for consumption) to the product
	// stock. The read and the write happen on q, so the change commits or
	// rolls back with the enclosing transaction. A result below zero fails
	// with *InsufficientStockError and writes nothing.
	UpdateStock(ctx context.Context, q dbtx.Querier, id int64, delta int) error
}
