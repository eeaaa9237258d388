package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// requestedAtKey is the context key holding the request receipt timestamp.
const requestedAtKey = "requested_at"

// RequestTime stamps every request with its receipt time. List responses
// echo the value back as requestedAt.
func RequestTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(requestedAtKey, time.Now().UTC())
			return next(c)
		}
	}
}

// RequestedAt returns the timestamp stamped by RequestTime, falling back to
// the current time when the middleware did not run (as in tests).
func RequestedAt(c echo.Context) time.Time {
	if t, ok := c.Get(requestedAtKey).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}
