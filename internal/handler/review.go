package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/middleware"
	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/query"
	"github.com/openvoyage/touring-api/internal/queue"
	"github.com/openvoyage/touring-api/internal/repository"
)

// Publisher sends a review write event to the broker. The real one lives in
// the queue_publisher package; tests substitute a recorder.
type Publisher func(ctx context.Context, event queue.ReviewWrittenEvent) error

// ReviewHandler implements the review writes. Reads go through the generic
// facade; writes are custom because they stamp the principal, enforce
// ownership and emit the rating-recompute event.
type ReviewHandler struct {
	Reviews *repository.ReviewStore
	Publish Publisher
}

func NewReviewHandler(reviews *repository.ReviewStore, publish Publisher) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Publish: publish}
}

// ReviewScope forces "reviews of this tour" onto lists served under
// /tours/:tourId/reviews. On the flat /reviews route it is a no-op.
func ReviewScope(c echo.Context) ([]query.Filter, error) {
	raw := c.Param("tourId")
	if raw == "" {
		return nil, nil
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return nil, fmt.Errorf("%w. invalid tour id: %s", repository.ErrValidation, raw)
	}
	return []query.Filter{{Field: "tour", Op: query.OpEq, Value: raw}}, nil
}

// CreateReview inserts a review for the authenticated user. The tour comes
// from the nested route when present, from the body otherwise. The
// one-review-per-user-per-tour rule is enforced by the database constraint,
// not checked here.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondFail(c, http.StatusUnauthorized, "you are not logged in")
	}
	var r model.Review
	if err := c.Bind(&r); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	if raw := c.Param("tourId"); raw != "" {
		tid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return respondFail(c, http.StatusBadRequest, "invalid tour id: "+raw)
		}
		r.TourID = tid
	}
	r.UserID = u.ID

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Reviews.Create(ctx, r)
	if err != nil {
		return respondErr(c, err)
	}
	h.publishEvent(created, "created")
	return respondData(c, http.StatusCreated, echo.Map{"review": created})
}

// UpdateReview lets the author (or an admin) edit text and rating.
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return respondFail(c, http.StatusBadRequest, "invalid id: "+c.Param("id"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	current, err := h.Reviews.FindByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	if ok, err := h.checkOwnership(c, current); !ok {
		return err
	}

	patch := map[string]any{}
	if err := c.Bind(&patch); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	updated, err := h.Reviews.UpdateByID(ctx, id, patch)
	if err != nil {
		return respondErr(c, err)
	}
	h.publishEvent(updated, "updated")
	return respondData(c, http.StatusOK, echo.Map{"review": updated})
}

// DeleteReview removes a review, again only for the author or an admin.
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return respondFail(c, http.StatusBadRequest, "invalid id: "+c.Param("id"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	current, err := h.Reviews.FindByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	if ok, err := h.checkOwnership(c, current); !ok {
		return err
	}
	if err := h.Reviews.DeleteByID(ctx, id); err != nil {
		return respondErr(c, err)
	}
	h.publishEvent(current, "deleted")
	return c.JSON(http.StatusNoContent, echo.Map{"status": "success", "data": nil})
}

// checkOwnership lets the review's author and admins through. When the
// caller may not proceed the rejection response has already been written.
func (h *ReviewHandler) checkOwnership(c echo.Context, r model.Review) (bool, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return false, respondFail(c, http.StatusUnauthorized, "you are not logged in")
	}
	if u.Role != model.RoleAdmin && r.UserID != u.ID {
		return false, respondFail(c, http.StatusForbidden, "you can only modify your own reviews")
	}
	return true, nil
}

// publishEvent fires the rating-recompute event without blocking the
// response. A publish failure only delays the aggregate refresh, so the
// error is logged inside the publisher and dropped here.
func (h *ReviewHandler) publishEvent(r model.Review, action string) {
	if h.Publish == nil {
		return
	}
	ev := queue.ReviewWrittenEvent{
		TourID:     r.TourID,
		ReviewID:   r.ID,
		UserID:     r.UserID,
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev)
	}()
}
