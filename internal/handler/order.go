package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/econstore/internal/domain/order"
)

// CreateOrder places an order and responds with its ID and status.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := readBody(r)
	if err != nil {
		h.fail(ctx, w, "create order", err)
		return
	}
	req, err := decodeCreateOrder(d)
	if err != nil {
		h.fail(ctx, w, "create order", err)
		return
	}

	res, err := h.orders.CreateOrder(ctx, req)
	if err != nil {
		h.fail(ctx, w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderId")
		e.Int64(res.OrderID)
		e.FieldStart("status")
		e.Str(string(res.Status))
		e.ObjEnd()
	})
}

// ListOrders returns every order with its customer and items. The userId
// query parameter restricts the result to one customer.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := queryInt64(r, "userId")
	if err != nil {
		h.fail(ctx, w, "list orders", err)
		return
	}

	orders, err := h.lister.ListAll(ctx, order.ListFilter{UserID: userID})
	if err != nil {
		h.fail(ctx, w, "list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range orders {
			encodeSummary(e, o)
		}
		e.ArrEnd()
	})
}

func decodeCreateOrder(d *jx.Decoder) (order.CreateRequest, error) {
	var req order.CreateRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				item, err := decodeLineItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "total":
			req.Total, err = decodeDecimal(d)
		case "status":
			var s string
			s, err = d.Str()
			req.Status = order.Status(s)
		case "userId":
			req.UserID, err = d.Int64()
		default:
			err = d.Skip()
		}
		if err != nil {
			return badRequest("invalid field %q: %v", key, err)
		}
		return nil
	})
	if err != nil {
		return req, asRequestError(err)
	}
	return req, nil
}

func decodeLineItem(d *jx.Decoder) (order.LineItem, error) {
	var item order.LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			item.ProductID, err = d.Int64()
		case "quantity":
			item.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return item, err
}

func encodeSummary(e *jx.Encoder, o order.Summary) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("userId")
	e.Int64(o.UserID)
	e.FieldStart("customerName")
	e.Str(o.CustomerName)
	e.FieldStart("customerEmail")
	e.Str(o.CustomerEmail)
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.ID)
		e.FieldStart("productId")
		e.Int64(it.ProductID)
		e.FieldStart("productName")
		e.Str(it.ProductName)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unitPrice")
		encodeDecimal(e, it.UnitPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
