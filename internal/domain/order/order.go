package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/econstore/internal/dbtx"
)

// Status is the lifecycle state of an order.
type Status string

// Known order statuses.
const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// LineItem is one product-quantity pair of an order request.
type LineItem struct {
	ProductID int64
	Quantity  int
}

// Header is the order row written before its line items.
type Header struct {
	Total  decimal.Decimal
	Status Status
	UserID int64
}

// Item is a persisted line item. UnitPrice is the product price captured
// when the order was created.
type Item struct {
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Summary is an order header enriched with its owner and line items.
type Summary struct {
	ID            int64
	Total         decimal.Decimal
	Status        Status
	UserID        int64
	CustomerName  string
	CustomerEmail string
	CreatedAt     time.Time
	Items         []ItemView
}

// ItemView is a line item joined with its product name.
type ItemView struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// ListFilter narrows order listings. A zero UserID lists every order.
type ListFilter struct {
	UserID int64
}

// Repository defines order persistence. Writes take the transaction handle
// they must participate in; reads run on whatever Querier the caller holds.
type Repository interface {
	InsertHeader(ctx context.Context, q dbtx.Querier, h Header) (int64, error)
	InsertItem(ctx context.Context, q dbtx.Querier, it Item) error
	ListHeaders(ctx context.Context, q dbtx.Querier, f ListFilter) ([]Summary, error)
	ListItems(ctx context.Context, q dbtx.Querier, orderID int64) ([]ItemView, error)
	ListItemsByOrders(ctx context.Context, q dbtx.Querier, orderIDs []int64) ([]ItemView, error)
}
