package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/econstore/internal/dbtx"
)

// ErrInvalidProduct is returned when a create request misses required fields
// or carries negative amounts.
var ErrInvalidProduct = errors.New("product name, price and stock are required")

// Draft is an unvalidated create request. A nil Price or Stock means the
// field was not supplied.
type Draft struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *int64
	ImageURL    string
}

// Validate checks that name, price and stock are present and non-negative
// and returns the product to insert.
func (d Draft) Validate() (NewProduct, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" || d.Price == nil || d.Stock == nil || d.Price.IsNegative() || *d.Stock < 0 {
		return NewProduct{}, ErrInvalidProduct
	}
	return NewProduct{
		Name:        name,
		Description: d.Description,
		Price:       *d.Price,
		Stock:       *d.Stock,
		CategoryID:  d.CategoryID,
		ImageURL:    d.ImageURL,
	}, nil
}

// Catalog serves product reads and administrative creation outside of any
// order transaction.
type Catalog struct {
	db   dbtx.Querier
	repo Repository
}

// NewCatalog creates a Catalog running its queries on db.
func NewCatalog(db dbtx.Querier, repo Repository) *Catalog {
	return &Catalog{db: db, repo: repo}
}

// Create validates and inserts a new product.
func (c *Catalog) Create(ctx context.Context, d Draft) (*Created, error) {
	p, err := d.Validate()
	if err != nil {
		return nil, err
	}
	return c.repo.Create(ctx, c.db, p)
}

// List returns products matching f, ordered by ID.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Product, error) {
	f.Search = strings.TrimSpace(f.Search)
	return c.repo.List(ctx, c.db, f)
}

// Get returns a single product or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id int64) (*Product, error) {
	return c.repo.GetByID(ctx, c.db, id)
}
