package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/config"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/handler"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/middleware"
)

// RegisterInbox wires the messaging endpoints. Every route requires an
// authenticated user; the send endpoint shares the per-user token
// bucket so one client cannot flood a thread.
func RegisterInbox(e *echo.Echo, h *handler.InboxHandler, jwtSecret string, rdb *redis.Client) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("DRIVER", "PASSENGER"))
	auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Inbox listing: derived conversations with unread counts.
	auth.GET("/inbox", h.GetInbox)
	// Two-party thread history; also commits the viewer's read marker.
	auth.GET("/rides/:id/messages", h.GetThread)
	// Append a message to a ride thread.
	auth.POST("/rides/:id/messages", h.SendMessage)
	// Explicit read-state commit for a (ride, peer) thread.
	auth.POST("/rides/:id/read", h.MarkThreadRead)
}
