package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openvoyage/touring-api/internal/model"
	"github.com/openvoyage/touring-api/internal/utils"
)

// SessionCookie is the name of the http-only cookie that may carry the
// session token as an alternative to the Authorization header.
const SessionCookie = "session"

// principalKey is the context key under which Protect stores the
// authenticated account. The value is never mutated after Protect sets it.
const principalKey = "user"

// PrincipalLoader loads the account a verified token points at. Satisfied
// by *repository.UserStore; tests substitute a fake.
type PrincipalLoader interface {
	FindByID(ctx context.Context, id uint64) (model.User, error)
}

// Protect returns the authentication gate for protected routes. It extracts
// the bearer token from the Authorization header or the session cookie,
// verifies signature and expiry, loads the account, and rejects tokens
// issued before the account's last password change. On success the account
// is attached to the request context for handlers and later middleware.
func Protect(secret string, users PrincipalLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return authFail(c, "you are not logged in. please log in to get access")
			}

			uid, issuedAt, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return authFail(c, "your login session has expired. please log in again")
				}
				return authFail(c, "invalid token. please log in again")
			}

			u, err := users.FindByID(c.Request().Context(), uid)
			if err != nil {
				return authFail(c, "the user belonging to this token no longer exists")
			}

			// A password change invalidates every token issued before it.
			if u.PasswordChangedAt != nil && !issuedAt.After(*u.PasswordChangedAt) {
				return authFail(c, "password was changed recently. please log in again")
			}

			c.Set(principalKey, u)
			return next(c)
		}
	}
}

// RequireRole returns a gate that only lets the listed roles through. The
// allowed set is built once when the route is registered, not per request.
// It must run after Protect.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok || !allowed[u.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"status":  "fail",
					"message": "you do not have permission to perform this action",
				})
			}
			return next(c)
		}
	}
}

// CurrentUser returns the principal Protect attached to the request, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(principalKey).(model.User)
	return u, ok
}

// tokenFromRequest prefers the Authorization header and falls back to the
// session cookie.
func tokenFromRequest(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func authFail(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"status": "fail", "message": msg})
}
