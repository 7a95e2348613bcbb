package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/econstore/internal/dbtx"
	"github.com/xenking/econstore/internal/domain/product"
)

const (
	getProductByIDSQL = `SELECT id, name, description, price, stock, category_id, image_url
		FROM products WHERE id = $1`

	listProductsSQL = `SELECT id, name, description, price, stock, category_id, image_url
		FROM products
		WHERE ($1::bigint = 0 OR category_id = $1)
			AND ($2::text = '' OR name ILIKE '%' || $2 || '%')
			AND (NOT $3::boolean OR stock > 0)
		ORDER BY id`

	createProductSQL = `INSERT INTO products (name, description, price, stock, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name`

	// The row lock serializes concurrent decrements of the same product until
	// the enclosing transaction ends.
	lockStockSQL = `SELECT stock FROM products WHERE id = $1 FOR UPDATE`

	setStockSQL = `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct{}

// NewProductRepository returns a ProductRepository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// GetByID returns a single product, or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, q dbtx.Querier, id int64) (*product.Product, error) {
	rows, err := q.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, dbtx.Persistence(fmt.Sprintf("get product %d", id), err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, dbtx.Persistence(fmt.Sprintf("get product %d", id), err)
	}
	return &p, nil
}

// List returns products matching f ordered by ID.
func (r *ProductRepository) List(ctx context.Context, q dbtx.Querier, f product.Filter) ([]product.Product, error) {
	rows, err := q.Query(ctx, listProductsSQL, f.CategoryID, f.Search, f.InStockOnly)
	if err != nil {
		return nil, dbtx.Persistence("list products", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, dbtx.Persistence("list products", err)
	}
	return products, nil
}

// Create inserts a new product and returns its assigned ID and name.
func (r *ProductRepository) Create(ctx context.Context, q dbtx.Querier, p product.NewProduct) (*product.Created, error) {
	var created product.Created
	err := q.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ImageURL,
	).Scan(&created.ID, &created.Name)
	if err != nil {
		return nil, dbtx.Persistence("insert product", err)
	}
	return &created, nil
}

// UpdateStock locks the product row, checks that stock+delta stays
// non-negative and writes the new value.
func (r *ProductRepository) UpdateStock(ctx context.Context, q dbtx.Querier, id int64, delta int) error {
	var stock int
	if err := q.QueryRow(ctx, lockStockSQL, id).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrNotFound
		}
		return dbtx.Persistence(fmt.Sprintf("lock stock of product %d", id), err)
	}

	next := stock + delta
	if next < 0 {
		return &product.InsufficientStockError{
			ProductID: id,
			Available: stock,
			Requested: -delta,
		}
	}

	if _, err := q.Exec(ctx, setStockSQL, id, next); err != nil {
		return dbtx.Persistence(fmt.Sprintf("update stock of product %d", id), err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.CategoryID, &p.ImageURL)
	p.Price = price
	return p, err
}
