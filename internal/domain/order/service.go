package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/econstore/internal/dbtx"
	"github.com/xenking/econstore/internal/domain/product"
)

const instrumentationName = "github.com/xenking/econstore/internal/domain/order"

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	Items  []LineItem
	Total  decimal.Decimal
	Status Status
	UserID int64
}

// CreateResult holds the output of a committed order.
type CreateResult struct {
	OrderID int64
	Status  Status
}

// Options configures a Service.
type Options struct {
	// TxTimeout bounds connection acquisition plus the whole transaction.
	// Zero leaves the caller context as the only bound.
	TxTimeout      time.Duration
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = otel.GetMeterProvider()
	}
}

// Service creates orders transactionally: product lookups, the order header,
// stock decrements and line items either all commit or all roll back.
type Service struct {
	conns    dbtx.Provider
	products product.Repository
	orders   Repository

	txTimeout time.Duration
	tracer    trace.Tracer
	created   metric.Int64Counter
	failed    metric.Int64Counter
}

// NewService creates an order Service with the required dependencies.
func NewService(
	conns dbtx.Provider,
	products product.Repository,
	orders Repository,
	opts Options,
) (*Service, error) {
	opts.setDefaults()

	meter := opts.MeterProvider.Meter(instrumentationName)
	created, err := meter.Int64Counter("econstore.orders.created",
		metric.WithDescription("Orders committed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	failed, err := meter.Int64Counter("econstore.orders.failed",
		metric.WithDescription("Order creations rolled back, by reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders failed counter")
	}

	return &Service{
		conns:     conns,
		products:  products,
		orders:    orders,
		txTimeout: opts.TxTimeout,
		tracer:    opts.TracerProvider.Tracer(instrumentationName),
		created:   created,
		failed:    failed,
	}, nil
}

// CreateOrder validates the request, then runs the order transaction on one
// exclusive connection. Any failure after BEGIN rolls the transaction back;
// the connection is released exactly once on every path.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (_ *CreateResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(
			attribute.Int64("user.id", req.UserID),
			attribute.Int("order.items", len(req.Items)),
		),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if req.Status == "" {
		req.Status = StatusPending
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	conn, err := s.conns.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire connection")
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}

	result, err := s.create(ctx, tx, req)
	if err != nil {
		// Rollback must still reach the server when ctx is already done.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			zctx.From(ctx).Warn("Rollback failed", zap.Error(rbErr))
		}
		s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "commit")))
		return nil, dbtx.Persistence("commit order", err)
	}
	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(result.Status))))

	return result, nil
}

func (s *Service) create(ctx context.Context, tx dbtx.Tx, req CreateRequest) (*CreateResult, error) {
	// Every product must exist before anything is written.
	products := make([]*product.Product, len(req.Items))
	for i, item := range req.Items {
		p, err := s.products.GetByID(ctx, tx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: item.ProductID}
			}
			return nil, err
		}
		products[i] = p
	}

	orderID, err := s.orders.InsertHeader(ctx, tx, Header{
		Total:  req.Total,
		Status: req.Status,
		UserID: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if err := s.products.UpdateStock(ctx, tx, item.ProductID, -item.Quantity); err != nil {
			return nil, &StockUpdateFailedError{ProductID: item.ProductID, Err: err}
		}
	}

	for i, item := range req.Items {
		if err := s.orders.InsertItem(ctx, tx, Item{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: products[i].Price,
		}); err != nil {
			return nil, &ItemInsertFailedError{Err: err}
		}
	}

	return &CreateResult{OrderID: orderID, Status: req.Status}, nil
}

func validate(req CreateRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return &InvalidQuantityError{ProductID: item.ProductID}
		}
	}
	if req.Total.IsNegative() {
		return ErrInvalidTotal
	}
	if req.UserID <= 0 {
		return ErrInvalidUser
	}
	if !req.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func failureReason(err error) string {
	var (
		notFound   *ProductNotFoundError
		stockErr   *StockUpdateFailedError
		itemErr    *ItemInsertFailedError
		persistErr *dbtx.PersistenceError
	)
	switch {
	case errors.As(err, &notFound):
		return "product_not_found"
	case errors.Is(err, product.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.As(err, &stockErr):
		return "stock_update"
	case errors.As(err, &itemErr):
		return "item_insert"
	case errors.As(err, &persistErr):
		return "persistence"
	default:
		return "other"
	}
}
