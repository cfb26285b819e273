package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware that enforces that the authenticated user
// carries one of the given roles in the JWT's "role" claim. Ride publishing
// and messaging are limited to DRIVER and PASSENGER accounts; anything else
// is aborted with 403 Forbidden. It assumes JWTAuth already ran and stored
// the role in the context under the key "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Allowed roles go into a set for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
