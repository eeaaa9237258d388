package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/repository"
)

// TourHandler holds the endpoints that go beyond the generic facade: the
// curated "top 5 cheap" alias and the catalogue statistics aggregate. Plain
// CRUD on tours is wired straight from the factory in the router.
type TourHandler struct {
	Tours *repository.TourStore
}

func NewTourHandler(tours *repository.TourStore) *TourHandler {
	return &TourHandler{Tours: tours}
}

// AliasTopTours pre-seeds the query parameters of the list endpoint so that
// /top-5-cheap is just a canned view of GET /tours.
func AliasTopTours(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := c.Request().URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,ratingsQuantity,duration,difficulty,summary,imageCover")
		c.Request().URL.RawQuery = q.Encode()
		return next(c)
	}
}

// Stats returns per-difficulty aggregates over the whole catalogue.
func (h *TourHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Tours.Stats(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	return respondData(c, http.StatusOK, echo.Map{"stats": stats})
}
