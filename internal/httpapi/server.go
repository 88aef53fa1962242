// Package httpapi wires the echo HTTP surface described in the external
// interfaces section: event creation, seat-map reads, bookings, and health
// checks, following the teacher's router/handler split.
package httpapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seatgrid/internal/admission"
	"github.com/iliyamo/seatgrid/internal/booking"
	"github.com/iliyamo/seatgrid/internal/config"
	"github.com/iliyamo/seatgrid/internal/eventinit"
	"github.com/iliyamo/seatgrid/internal/lockstore"
	mw "github.com/iliyamo/seatgrid/internal/middleware"
	"github.com/iliyamo/seatgrid/internal/queue"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

// Dependencies bundles every collaborator a handler needs. Handlers take a
// pointer to this struct the way the teacher's CustomerHandler/OwnerHandler
// took their repositories.
type Dependencies struct {
	Seats     *seatstore.Store
	Locks     *lockstore.Store
	Admission *admission.Cache
	Coord     *booking.Coordinator
	Init      *eventinit.Initializer
	Publisher *queue.Publisher
	JWTSecret string
	AdminUser string
	AdminPass string
}

// New constructs the echo instance with every route and middleware
// registered, ready for e.Start.
func New(deps *Dependencies, rdb *redis.Client, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig) *echo.Echo {
	e := echo.New()

	h := &handlers{deps: deps}

	e.GET("/health/live", h.live)
	e.GET("/health/ready", h.ready)

	e.POST("/auth/login", h.login)

	events := e.Group("/events")
	events.POST("", h.createEvent, mw.JWTAuth(deps.JWTSecret), mw.RequireRole("owner"))
	events.GET("/:id/seats", h.listSeats, mw.NewRedisCache(cacheCfg, rdb))

	bookings := e.Group("/bookings")
	bookings.POST("", h.createBooking, mw.NewTokenBucket(rlCfg, rdb))

	return e
}

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
