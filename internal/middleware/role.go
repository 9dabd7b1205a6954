package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// Role values carried in the JWT "role" claim. The identity service
// issues the tokens; this service only gates on the claim.
const (
	RoleHost  = "HOST"
	RoleGuest = "GUEST"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the given roles.  It assumes JWTAuth has
// already extracted the role claim into the context under "role"; a
// missing or unknown role aborts the request with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Get("role")
			role, ok := v.(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
