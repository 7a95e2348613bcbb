package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/econstore/internal/dbtx"
	"github.com/xenking/econstore/internal/domain/order"
	"github.com/xenking/econstore/internal/domain/product"
)

// statusFor maps a domain error to an HTTP status and client-facing message.
// Unrecognized errors map to 500 with a generic message.
func statusFor(err error) (int, string) {
	var (
		reqErr     *requestError
		qtyErr     *order.InvalidQuantityError
		missingErr *order.ProductNotFoundError
	)
	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &qtyErr),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidTotal),
		errors.Is(err, order.ErrInvalidUser),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, product.ErrInvalidProduct):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &missingErr):
		return http.StatusUnprocessableEntity, missingErr.Error()
	case errors.Is(err, product.ErrInsufficientStock):
		return http.StatusConflict, err.Error()
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "product not found"
	case dbtx.IsForeignKeyViolation(err):
		return http.StatusUnprocessableEntity, "referenced user or category does not exist"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.String("op", op), zap.Error(err))
	} else {
		zctx.From(ctx).Debug("Request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}
