package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/middleware"
)

// UserHandler implements the self-service account endpoints. Admin CRUD
// over users is wired from the generic facade in the router.
type UserHandler struct {
	Users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{Users: users}
}

// Me returns the authenticated account.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondFail(c, http.StatusUnauthorized, "you are not logged in")
	}
	return respondData(c, http.StatusOK, echo.Map{"user": u})
}

// UpdateMe updates the caller's own profile. Only name, email and photo may
// change here; passwords have their own endpoint and roles are admin-only.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondFail(c, http.StatusUnauthorized, "you are not logged in")
	}
	patch := map[string]any{}
	if err := c.Bind(&patch); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid request body")
	}
	if _, has := patch["password"]; has {
		return respondFail(c, http.StatusBadRequest,
			"this route is not for password updates. please use /update-password")
	}
	for key := range patch {
		switch key {
		case "name", "email", "photo":
		default:
			return respondFail(c, http.StatusBadRequest, "field not allowed here: "+key)
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	updated, err := h.Users.UpdateByID(ctx, u.ID, patch)
	if err != nil {
		return respondErr(c, err)
	}
	return respondData(c, http.StatusOK, echo.Map{"user": updated})
}

// DeleteMe soft-deletes the caller's account. The record survives with the
// active flag cleared and stops appearing anywhere.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondFail(c, http.StatusUnauthorized, "you are not logged in")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.DeleteByID(ctx, u.ID); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusNoContent, echo.Map{"status": "success", "data": nil})
}

// CreateUser exists so POST /users answers something sensible: accounts are
// only created through signup, where passwords are handled properly.
func (h *UserHandler) CreateUser(c echo.Context) error {
	return respondFail(c, http.StatusBadRequest,
		"this route is not defined. please use /signup instead")
}
