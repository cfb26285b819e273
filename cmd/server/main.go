package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/config"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/database"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/handler"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/queue"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/repository"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/router"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is optional: when unavailable, response caching, rate
	// limiting and the inbox snapshot cache all degrade to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	rideRepo := repository.NewRideRepo(db)
	messageRepo := repository.NewMessageRepo(db)

	rideSvc := service.NewRideService(rideRepo)
	inboxCache := service.NewInboxCache(rdb, config.LoadCacheConfig().TTL)
	inboxSvc := service.NewInboxService(messageRepo, inboxCache)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterRides(e, handler.NewRideHandler(rideSvc, rideRepo), cfg.JWTSecret, rdb)
	router.RegisterInbox(e, handler.NewInboxHandler(inboxSvc), cfg.JWTSecret, rdb)

	// Cross-instance inbox cache invalidation via pub/sub.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inboxCache.Subscribe(ctx)

	// Background consumer appending ride.created events to logs/rides.log.
	go func() {
		if err := queue.StartRideConsumer(); err != nil {
			log.Printf("ride-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
