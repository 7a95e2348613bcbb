// Package handler exposes the catalog and order services over HTTP.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/econstore/internal/domain/order"
	"github.com/xenking/econstore/internal/domain/product"
)

// ProductCatalog is the product use-case surface used by the handlers.
type ProductCatalog interface {
	Create(ctx context.Context, d product.Draft) (*product.Created, error)
	List(ctx context.Context, f product.Filter) ([]product.Product, error)
	Get(ctx context.Context, id int64) (*product.Product, error)
}

// OrderCreator places orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.CreateResult, error)
}

// OrderLister lists orders with their items.
type OrderLister interface {
	ListAll(ctx context.Context, f order.ListFilter) ([]order.Summary, error)
}

var (
	_ ProductCatalog = (*product.Catalog)(nil)
	_ OrderCreator   = (*order.Service)(nil)
	_ OrderLister    = (*order.Lister)(nil)
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler serves the /api routes.
type Handler struct {
	products     ProductCatalog
	orders       OrderCreator
	lister       OrderLister
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products ProductCatalog,
	orders OrderCreator,
	lister OrderLister,
) *Handler {
	return &Handler{
		products:     products,
		orders:       orders,
		lister:       lister,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes mounts the API under /api on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{productID}", h.GetProduct)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
		})
	})
}
