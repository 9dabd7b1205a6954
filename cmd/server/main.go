package main // Entry point package

import (
	"context"
	"log" // Logging library
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/stay-reservation/internal/config" // Internal config loader
	"github.com/iliyamo/stay-reservation/internal/database"
	"github.com/iliyamo/stay-reservation/internal/handler"
	"github.com/iliyamo/stay-reservation/internal/notifier"
	"github.com/iliyamo/stay-reservation/internal/queue"
	"github.com/iliyamo/stay-reservation/internal/repository"
	"github.com/iliyamo/stay-reservation/internal/router" // Internal router setup
	"github.com/iliyamo/stay-reservation/internal/sweeper"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  A nil client
	// simply disables both; the reservation engine itself never depends
	// on Redis.
	rdb := config.NewRedisClient()

	listingRepo := repository.NewListingRepo(db)
	calendarRepo := repository.NewCalendarRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	requestRepo := repository.NewRequestRepo(db)

	notify := notifier.New()
	sweep := sweeper.New(requestRepo, time.Duration(cfg.SweepIntervalMin)*time.Minute)

	requestTTL := time.Duration(cfg.RequestTTLHours) * time.Hour
	txTimeout := time.Duration(cfg.TxTimeoutSec) * time.Second

	reqHandler := handler.NewRequestHandler(listingRepo, calendarRepo, bookingRepo, requestRepo, notify, sweep, requestTTL, txTimeout)
	bookingHandler := handler.NewBookingHandler(listingRepo, calendarRepo, bookingRepo, notify, txTimeout)
	calendarHandler := handler.NewCalendarHandler(listingRepo, calendarRepo, bookingRepo)

	// Background workers: the sweeper expires stale pending requests on a
	// ticker and the consumer renders published notifications.  Both are
	// optional for serving traffic and log their own failures.
	go sweep.Run(context.Background())
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer disabled: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterPublic(e, calendarHandler, rdb)
	router.RegisterGuest(e, reqHandler, bookingHandler, cfg.JWTSecret, rdb)
	router.RegisterHost(e, reqHandler, bookingHandler, calendarHandler, cfg.JWTSecret)
	router.RegisterShared(e, reqHandler, bookingHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
