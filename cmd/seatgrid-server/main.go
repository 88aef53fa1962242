package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/seatgrid/internal/admission"
	"github.com/iliyamo/seatgrid/internal/booking"
	"github.com/iliyamo/seatgrid/internal/config"
	"github.com/iliyamo/seatgrid/internal/database"
	"github.com/iliyamo/seatgrid/internal/eventinit"
	"github.com/iliyamo/seatgrid/internal/httpapi"
	"github.com/iliyamo/seatgrid/internal/lockstore"
	"github.com/iliyamo/seatgrid/internal/queue"
	"github.com/iliyamo/seatgrid/internal/reconciler"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("failed to connect to seat store: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("failed to connect to lock store / admission cache redis")
	}
	defer rdb.Close()

	seats := seatstore.New(db)
	locks := lockstore.New(rdb, cfg.LockTTL)
	ac := admission.New(rdb)

	strategy, err := seatstore.Lookup(cfg.BookingStrategy, seats)
	if err != nil {
		log.Fatalf("invalid booking strategy: %v", err)
	}
	log.Printf("booking commit strategy: %s", cfg.BookingStrategy)

	coord := booking.New(locks, ac, strategy, cfg.AdmissionCacheEnabled)
	init := eventinit.New(seats, ac, cfg.LockTTL)

	var publisher *queue.Publisher
	if p, err := queue.NewPublisher(cfg.AMQPURL); err != nil {
		log.Printf("warning: rabbitmq unavailable, booking/event notifications disabled: %v", err)
	} else {
		publisher = p
		defer publisher.Close()
	}

	rc := reconciler.New(seats, locks, cfg.ReconcileInterval, cfg.StaleThreshold, cfg.ReconcilerFanOut)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go rc.Run(ctx)

	deps := &httpapi.Dependencies{
		Seats:     seats,
		Locks:     locks,
		Admission: ac,
		Coord:     coord,
		Init:      init,
		Publisher: publisher,
		JWTSecret: cfg.JWTSecret,
		AdminUser: getenvDefault("SEATGRID_ADMIN_USER", "owner"),
		AdminPass: getenvDefault("SEATGRID_ADMIN_PASSWORD", "change-me"),
	}

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	e := httpapi.New(deps, rdb, cacheCfg, rlCfg)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
