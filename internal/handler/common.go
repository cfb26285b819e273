package handler // handler defines http handlers

import (
	"errors" // errors provides the sentinel used by getUserID

	"github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the authenticated user id from echo.Context. The
// JWT middleware stores the token's subject under "user_id"; user ids
// are opaque UUID strings issued by the external identity provider.
func getUserID(c echo.Context) (string, error) {
	v := c.Get("user_id")
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid user_id in context")
}
