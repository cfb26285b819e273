package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/config"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/handler"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/middleware"
)

// RegisterRides wires the ride endpoints. Browsing and search are
// public; search additionally sits behind the Redis response cache so
// repeated listing queries do not hit the database. Creation and the
// "my rides" listing require a valid access token with a known role
// and are rate limited per user.
func RegisterRides(e *echo.Echo, h *handler.RideHandler, jwtSecret string, rdb *redis.Client) {
	// Public browse endpoints. The response cache is a no-op when Redis
	// is unavailable, so registration is unconditional.
	e.GET("/v1/search/rides", h.SearchRides, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	e.GET("/v1/rides/:id", h.GetRide)

	// Protected endpoints live under /v1 behind JWT, role and rate
	// limiting middleware.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("DRIVER", "PASSENGER"))
	auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	auth.POST("/rides", h.CreateRide)
	auth.GET("/rides/mine", h.ListMyRides)
}
