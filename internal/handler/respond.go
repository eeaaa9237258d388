package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/repository"
)

// Every response uses the same envelope: {"status":"success","data":...} on
// the happy path and {"status":"fail"|"error","message":...} otherwise.
// "fail" marks operational, client-attributable problems (4xx); "error"
// marks server faults (5xx).

func respondData(c echo.Context, code int, data echo.Map) error {
	return c.JSON(code, echo.Map{"status": "success", "data": data})
}

func respondFail(c echo.Context, code int, msg string) error {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	return c.JSON(code, echo.Map{"status": status, "message": msg})
}

// respondErr translates persistence-layer errors into the envelope. Sentinel
// errors carry their own safe-to-display message; anything unrecognized is
// an unexpected fault and surfaces as a generic 500, with the raw error kept
// to the server log only.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrPageOutOfRange):
		return respondFail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicateReview):
		return respondFail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrUnknownField),
		errors.Is(err, repository.ErrValidation):
		return respondFail(c, http.StatusBadRequest, err.Error())
	}
	c.Logger().Error(err)
	return respondFail(c, http.StatusInternalServerError, "something went very wrong")
}
