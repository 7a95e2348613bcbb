package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/econstore/internal/dbtx"
	"github.com/xenking/econstore/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (total, status, user_id)
		VALUES ($1, $2, $3)
		RETURNING id`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	listOrdersSQL = `SELECT o.id, o.total, o.status, o.user_id, u.full_name, u.email, o.created_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE ($1::bigint = 0 OR o.user_id = $1)
		ORDER BY o.created_at DESC, o.id DESC`

	listOrderItemsSQL = `SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	listOrderItemsByOrdersSQL = `SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct{}

// NewOrderRepository returns an OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// InsertHeader writes the order row and returns the identifier assigned by
// the database.
func (r *OrderRepository) InsertHeader(ctx context.Context, q dbtx.Querier, h order.Header) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, insertOrderSQL, h.Total, string(h.Status), h.UserID).Scan(&id); err != nil {
		return 0, dbtx.Persistence("insert order", err)
	}
	return id, nil
}

// InsertItem writes one line item.
func (r *OrderRepository) InsertItem(ctx context.Context, q dbtx.Querier, it order.Item) error {
	_, err := q.Exec(ctx, insertOrderItemSQL, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice)
	return dbtx.Persistence("insert order item", err)
}

// ListHeaders returns orders joined with their owner, newest first.
func (r *OrderRepository) ListHeaders(ctx context.Context, q dbtx.Querier, f order.ListFilter) ([]order.Summary, error) {
	rows, err := q.Query(ctx, listOrdersSQL, f.UserID)
	if err != nil {
		return nil, dbtx.Persistence("list orders", err)
	}

	orders, err := pgx.CollectRows(rows, scanSummary)
	if err != nil {
		return nil, dbtx.Persistence("list orders", err)
	}
	return orders, nil
}

// ListItems returns the items of one order.
func (r *OrderRepository) ListItems(ctx context.Context, q dbtx.Querier, orderID int64) ([]order.ItemView, error) {
	return r.collectItems(ctx, q, listOrderItemsSQL, orderID)
}

// ListItemsByOrders returns the items of every given order in one query,
// ordered by item ID.
func (r *OrderRepository) ListItemsByOrders(ctx context.Context, q dbtx.Querier, orderIDs []int64) ([]order.ItemView, error) {
	return r.collectItems(ctx, q, listOrderItemsByOrdersSQL, orderIDs)
}

func (r *OrderRepository) collectItems(ctx context.Context, q dbtx.Querier, sql string, arg any) ([]order.ItemView, error) {
	rows, err := q.Query(ctx, sql, arg)
	if err != nil {
		return nil, dbtx.Persistence("list order items", err)
	}

	items, err := pgx.CollectRows(rows, scanItemView)
	if err != nil {
		return nil, dbtx.Persistence("list order items", err)
	}
	return items, nil
}

func scanSummary(row pgx.CollectableRow) (order.Summary, error) {
	var (
		s      order.Summary
		total  decimal.Decimal
		status string
	)
	err := row.Scan(&s.ID, &total, &status, &s.UserID, &s.CustomerName, &s.CustomerEmail, &s.CreatedAt)
	s.Total = total
	s.Status = order.Status(status)
	return s, err
}

func scanItemView(row pgx.CollectableRow) (order.ItemView, error) {
	var (
		it    order.ItemView
		price decimal.Decimal
	)
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &price)
	it.UnitPrice = price
	return it, err
}
