package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// RequireRole enforces that the authenticated user has one of the given
// roles, assuming JWTAuth already stored "role" in context.  Wrong or
// missing roles are rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[CurrentRole(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRolePage is the page-flow variant: a caller with the wrong role is
// sent back to redirectURL with a human-readable notice instead of a 403
// body.  Session issuance uses this so a student hitting /create-qr/ lands
// on the dashboard with an explanation.
func RequireRolePage(redirectURL, notice string, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	target := redirectURL + "?notice=" + url.QueryEscape(notice)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[CurrentRole(c)] {
				return c.Redirect(http.StatusSeeOther, target)
			}
			return next(c)
		}
	}
}
