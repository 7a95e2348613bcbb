package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/econstore/internal/domain/product"
)

// ListProducts returns catalog products, optionally filtered by the
// categoryId, search and inStock query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		f   product.Filter
		err error
	)
	if f.CategoryID, err = queryInt64(r, "categoryId"); err != nil {
		h.fail(ctx, w, "list products", err)
		return
	}
	if f.InStockOnly, err = queryBool(r, "inStock"); err != nil {
		h.fail(ctx, w, "list products", err)
		return
	}
	f.Search = r.URL.Query().Get("search")

	products, err := h.products.List(ctx, f)
	if err != nil {
		h.fail(ctx, w, "list products", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			h.encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(ctx, w, "get product", badRequest("invalid product id %q", chi.URLParam(r, "productID")))
		return
	}

	p, err := h.products.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get product", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, *p)
	})
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := readBody(r)
	if err != nil {
		h.fail(ctx, w, "create product", err)
		return
	}
	p, err := decodeDraft(d)
	if err != nil {
		h.fail(ctx, w, "create product", err)
		return
	}

	created, err := h.products.Create(ctx, p)
	if err != nil {
		h.fail(ctx, w, "create product", err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(created.ID)
		e.FieldStart("name")
		e.Str(created.Name)
		e.ObjEnd()
	})
}

func decodeDraft(d *jx.Decoder) (product.Draft, error) {
	var p product.Draft
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			var v decimal.Decimal
			v, err = decodeDecimal(d)
			p.Price = &v
		case "stock":
			var v int
			v, err = d.Int()
			p.Stock = &v
		case "categoryId":
			p.CategoryID, err = decodeOptionalID(d)
		case "imageUrl":
			p.ImageURL, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return badRequest("invalid field %q: %v", key, err)
		}
		return nil
	})
	if err != nil {
		return p, asRequestError(err)
	}
	if p.Price == nil || p.Stock == nil {
		return p, product.ErrInvalidProduct
	}
	return p, nil
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("categoryId")
	if p.CategoryID != nil {
		e.Int64(*p.CategoryID)
	} else {
		e.Null()
	}
	e.FieldStart("imageUrl")
	e.Str(h.imageURL(p.ImageURL))
	e.ObjEnd()
}

func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return h.imageBaseURL + path
}
