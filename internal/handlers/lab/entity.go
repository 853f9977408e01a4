package lab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"labdesk/internal/audit"
	"labdesk/internal/export"
	"labdesk/internal/forms"
	"labdesk/internal/listing"
	"labdesk/internal/models"
	"labdesk/internal/response"
	"labdesk/internal/services"
)

type endpoint interface {
	list(w http.ResponseWriter, r *http.Request)
	get(w http.ResponseWriter, r *http.Request, id string)
	create(w http.ResponseWriter, r *http.Request)
	update(w http.ResponseWriter, r *http.Request, id string)
	remove(w http.ResponseWriter, r *http.Request, id string)
	sheet(ctx context.Context, v url.Values) (export.Sheet, error)
}

// entity serves one resource. row adds derived fields to a record; form is
// nil for read-only resources.
type entity[T any] struct {
	h      *Handler
	module string
	res    *services.Resource[T]
	match  listing.Matcher[T]
	form   func(existing *T) forms.Form
	id     func(T) string
	row    func(item T, now time.Time) any
	sheetF func(items []T, now time.Time) export.Sheet
}

// query params consumed here rather than forwarded to the backend
var localParams = map[string]bool{"search": true, "q": true, "status": true, "category": true, "format": true}

// upstreamFilter keeps the params the backend filters on, e.g. instrumentId.
func upstreamFilter(v url.Values) url.Values {
	var out url.Values
	for k, vals := range v {
		if localParams[k] {
			continue
		}
		if out == nil {
			out = url.Values{}
		}
		out[k] = vals
	}
	return out
}

func (e *entity[T]) load(ctx context.Context, v url.Values) ([]T, error) {
	items, err := e.res.GetAll(ctx, upstreamFilter(v))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return listing.Apply(items, listing.QueryFromValues(v), e.match), nil
}

func (e *entity[T]) list(w http.ResponseWriter, r *http.Request) {
	items, err := e.load(r.Context(), r.URL.Query())
	if err != nil {
		e.h.Log.Warn("list failed", zap.String("entity", e.module), zap.Error(err))
		response.FromError(w, err)
		return
	}
	var data any = items
	if e.row != nil {
		now := e.h.now()
		rows := make([]any, len(items))
		for i, it := range items {
			rows[i] = e.row(it, now)
		}
		data = rows
	}
	response.JSONMeta(w, data, &models.Meta{Total: len(items)})
}

func (e *entity[T]) get(w http.ResponseWriter, r *http.Request, id string) {
	item, err := e.res.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if e.row != nil {
		response.JSON(w, e.row(item, e.h.now()))
		return
	}
	response.JSON(w, item)
}

func (e *entity[T]) create(w http.ResponseWriter, r *http.Request) {
	if e.form == nil {
		response.Err(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	f := e.form(nil)
	if err := response.DecodeBody(r, f); err != nil {
		decodeErr(w)
		return
	}
	out, err := forms.Submit[T](r.Context(), e.res, f, func(saved T) {
		e.h.record(r, audit.ActionCreate, e.module, e.id(saved), fmt.Sprintf("Created %s %s", e.module, e.id(saved)))
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, out)
}

func (e *entity[T]) update(w http.ResponseWriter, r *http.Request, id string) {
	if e.form == nil {
		response.Err(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	existing, err := e.res.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	f := e.form(&existing)
	if err := response.DecodeBody(r, f); err != nil {
		decodeErr(w)
		return
	}
	out, err := forms.Submit[T](r.Context(), e.res, f, func(saved T) {
		e.h.record(r, audit.ActionUpdate, e.module, id, fmt.Sprintf("Updated %s %s", e.module, id))
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, out)
}

func (e *entity[T]) remove(w http.ResponseWriter, r *http.Request, id string) {
	if err := e.res.Delete(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	e.h.record(r, audit.ActionDelete, e.module, id, fmt.Sprintf("Deleted %s %s", e.module, id))
	response.JSON(w, map[string]string{"status": "deleted"})
}

func (e *entity[T]) sheet(ctx context.Context, v url.Values) (export.Sheet, error) {
	items, err := e.load(ctx, v)
	if err != nil {
		return export.Sheet{}, err
	}
	return e.sheetF(items, e.h.now()), nil
}
