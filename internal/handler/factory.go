package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/middleware"
	"github.com/openvoyage/touring-api/internal/query"
	"github.com/openvoyage/touring-api/internal/repository"
)

// This file is the generic CRUD facade: one set of handlers parameterized
// by the entity type, instantiated once per resource at route registration.
// Resource-specific behavior hooks in through the Scope and Mutate
// callbacks instead of per-resource handler copies.

// Scope produces forced filters a route imposes on a list, such as "only
// reviews of the tour in the path". The client cannot override them.
type Scope func(echo.Context) ([]query.Filter, error)

// Mutate adjusts a bound document before creation, e.g. stamping the
// authenticated user onto a review.
type Mutate[T any] func(echo.Context, *T) error

const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// GetAll lists a resource through the query engine. The response carries the
// page item count, the total matching document count, the derived page count
// and the request receipt time.
func GetAll[T any](m repository.Model[T], plural string, scope Scope) echo.HandlerFunc {
	return func(c echo.Context) error {
		var forced []query.Filter
		if scope != nil {
			var err error
			if forced, err = scope(c); err != nil {
				return respondErr(c, err)
			}
		}
		spec := query.Parse(c.QueryParams())

		ctx, cancel := reqCtx(c)
		defer cancel()

		items, total, err := m.FindAll(ctx, spec, forced...)
		if err != nil {
			return respondErr(c, err)
		}
		totalPages := (total + int64(spec.Limit) - 1) / int64(spec.Limit)

		return c.JSON(http.StatusOK, echo.Map{
			"status":         "success",
			"results":        len(items),
			"totalDocuments": total,
			"totalPages":     totalPages,
			"requestedAt":    middleware.RequestedAt(c).Format(time.RFC3339),
			"data":           echo.Map{plural: projectItems(items, spec.Fields)},
		})
	}
}

// GetOne fetches a single document by id.
func GetOne[T any](m repository.Model[T], singular string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := paramID(c, "id")
		if !ok {
			return respondFail(c, http.StatusBadRequest, "invalid id: "+c.Param("id"))
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		doc, err := m.FindByID(ctx, id)
		if err != nil {
			return respondErr(c, err)
		}
		return respondData(c, http.StatusOK, echo.Map{singular: doc})
	}
}

// CreateOne binds the request body into the entity type, lets the optional
// mutate hook adjust it, and inserts it.
func CreateOne[T any](m repository.Model[T], singular string, mutate Mutate[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		var doc T
		if err := c.Bind(&doc); err != nil {
			return respondFail(c, http.StatusBadRequest, "invalid request body")
		}
		if mutate != nil {
			if err := mutate(c, &doc); err != nil {
				return respondErr(c, err)
			}
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		created, err := m.Create(ctx, doc)
		if err != nil {
			return respondErr(c, err)
		}
		return respondData(c, http.StatusCreated, echo.Map{singular: created})
	}
}

// UpdateOne applies a partial update; the store re-validates the merged
// document before writing.
func UpdateOne[T any](m repository.Model[T], singular string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := paramID(c, "id")
		if !ok {
			return respondFail(c, http.StatusBadRequest, "invalid id: "+c.Param("id"))
		}
		patch := map[string]any{}
		if err := c.Bind(&patch); err != nil {
			return respondFail(c, http.StatusBadRequest, "invalid request body")
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		updated, err := m.UpdateByID(ctx, id, patch)
		if err != nil {
			return respondErr(c, err)
		}
		return respondData(c, http.StatusOK, echo.Map{singular: updated})
	}
}

// DeleteOne removes a document by id.
func DeleteOne[T any](m repository.Model[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := paramID(c, "id")
		if !ok {
			return respondFail(c, http.StatusBadRequest, "invalid id: "+c.Param("id"))
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		if err := m.DeleteByID(ctx, id); err != nil {
			return respondErr(c, err)
		}
		return c.JSON(http.StatusNoContent, echo.Map{"status": "success", "data": nil})
	}
}

// projectItems applies the projection at the serialization boundary: the
// store has already rejected unknown field names, so here every document is
// reduced to the requested keys. Without a projection the documents pass
// through untouched.
func projectItems[T any](items []T, fields []string) any {
	if len(fields) == 0 {
		return items
	}
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			continue
		}
		full := map[string]any{}
		if err := json.Unmarshal(raw, &full); err != nil {
			continue
		}
		doc := make(map[string]any, len(keep))
		for k, v := range full {
			if keep[k] {
				doc[k] = v
			}
		}
		out = append(out, doc)
	}
	return out
}
