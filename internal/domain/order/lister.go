package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/econstore/internal/dbtx"
)

// ListerOptions configures a Lister.
type ListerOptions struct {
	// BatchItems fetches the items of every listed order with one query
	// instead of one query per order.
	BatchItems     bool
	TracerProvider trace.TracerProvider
}

// Lister assembles orders with their line items. It only reads, so it runs
// on the pool without a transaction.
type Lister struct {
	db     dbtx.Querier
	orders Repository
	batch  bool
	tracer trace.Tracer
}

// NewLister creates a Lister running its queries on db.
func NewLister(db dbtx.Querier, orders Repository, opts ListerOptions) *Lister {
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &Lister{
		db:     db,
		orders: orders,
		batch:  opts.BatchItems,
		tracer: opts.TracerProvider.Tracer(instrumentationName),
	}
}

// ListAll returns orders newest first, each carrying its own items (an
// empty slice when it has none). Any query failure is returned as is.
func (l *Lister) ListAll(ctx context.Context, f ListFilter) (_ []Summary, rerr error) {
	ctx, span := l.tracer.Start(ctx, "order.ListAll",
		trace.WithAttributes(attribute.Bool("order.batch_items", l.batch)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	orders, err := l.orders.ListHeaders(ctx, l.db, f)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []Summary{}, nil
	}

	if l.batch {
		return l.attachBatched(ctx, orders)
	}

	for i := range orders {
		items, err := l.orders.ListItems(ctx, l.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []ItemView{}
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (l *Lister) attachBatched(ctx context.Context, orders []Summary) ([]Summary, error) {
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := l.orders.ListItemsByOrders(ctx, l.db, ids)
	if err != nil {
		return nil, err
	}

	// Appending in query order keeps each order's items in the same order a
	// per-order query would return them.
	grouped := make(map[int64][]ItemView, len(orders))
	for _, it := range items {
		grouped[it.OrderID] = append(grouped[it.OrderID], it)
	}
	for i := range orders {
		own := grouped[orders[i].ID]
		if own == nil {
			own = []ItemView{}
		}
		orders[i].Items = own
	}
	return orders, nil
}
