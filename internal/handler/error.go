package handler

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// NewHTTPErrorHandler returns the Echo error handler used for everything the
// route handlers did not translate themselves: unmatched routes, binder
// failures and panics recovered by the framework. Known *echo.HTTPError
// values keep their status; everything else is an unexpected fault and is
// reported as a generic 500. In development the raw error and a stack trace
// are included in the body to help debugging; in any other environment no
// internal detail leaks.
func NewHTTPErrorHandler(env string) echo.HTTPErrorHandler {
	dev := env == "development"
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "something went very wrong"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		}

		status := "fail"
		if code >= http.StatusInternalServerError {
			status = "error"
			c.Logger().Error(err)
		}

		body := echo.Map{"status": status, "message": msg}
		if dev {
			body["error"] = err.Error()
			if code >= http.StatusInternalServerError {
				body["stack"] = string(debug.Stack())
			}
		}
		_ = c.JSON(code, body)
	}
}

// NotFoundRoute is mounted as the catch-all so unknown paths get the same
// envelope as every other failure.
func NotFoundRoute(c echo.Context) error {
	return respondFail(c, http.StatusNotFound,
		fmt.Sprintf("%s doesn't exist on this server", c.Request().URL.Path))
}
