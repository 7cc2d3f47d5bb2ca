package middleware // reusable HTTP middleware shared by all route groups

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// AccessCookie is the cookie the login handler sets alongside the JSON token
// pair.  Link-based flows (a student opening /mark/<token>/ from a phone
// camera) carry no Authorization header, so the middleware falls back to it.
const AccessCookie = "access_token"

// JWTAuth validates a Bearer or cookie access token and injects the token's
// subject and role claims into the request context under "user_id" (uint64)
// and "role" (string).  Unauthenticated requests get a 401 JSON body; use
// JWTAuthPage for page flows that should bounce to the login page instead.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authenticate(c, secret) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}

// JWTAuthPage behaves like JWTAuth but redirects unauthenticated callers to
// loginURL, the way the page flows expect.
func JWTAuthPage(secret, loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authenticate(c, secret) {
				return c.Redirect(http.StatusSeeOther, loginURL)
			}
			return next(c)
		}
	}
}

// authenticate parses the access token from the Authorization header or the
// access_token cookie and, when valid, stores user_id and role in context.
func authenticate(c echo.Context, secret string) bool {
	raw := ""
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimPrefix(auth, "Bearer ")
	} else if ck, err := c.Cookie(AccessCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		return false
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	uid := subjectID(claims["sub"])
	if uid == 0 {
		return false
	}
	role, _ := claims["role"].(string)
	c.Set("user_id", uid)
	c.Set("role", role)
	return true
}

// subjectID coerces the sub claim into a uint64 user ID.  JSON numbers
// decode as float64; some issuers encode numeric strings.
func subjectID(v interface{}) uint64 {
	switch n := v.(type) {
	case float64:
		return uint64(n)
	case string:
		if parsed, err := strconv.ParseUint(n, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// CurrentUserID returns the authenticated user's ID from context, or zero
// when the request did not pass JWTAuth.
func CurrentUserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// CurrentRole returns the authenticated user's role from context.
func CurrentRole(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}
