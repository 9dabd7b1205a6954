package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stay-reservation/internal/config"
	"github.com/iliyamo/stay-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/stay-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated availability surface: the
// synthesized calendar view and the stay probe.  These are the hottest
// reads of the service, so the calendar sits behind the Redis response
// cache when one is configured.  Cached output is display-only; every
// write path re-validates inside its own transaction.
func RegisterPublic(e *echo.Echo, cal *handler.CalendarHandler, rdb *redis.Client) {
	calendarGET := []echo.MiddlewareFunc{}
	if rdb != nil {
		cacheCfg := config.LoadCacheConfig()
		calendarGET = append(calendarGET, middleware.NewRedisCache(cacheCfg, rdb))
	}
	e.GET("/v1/listings/:id/calendar", cal.GetCalendar, calendarGET...)
	e.GET("/v1/listings/:id/availability", cal.CheckAvailability, calendarGET...)
}

// RegisterGuest registers guest-scoped endpoints under /v1.  All routes
// require a valid JWT and the GUEST role.  Guests create booking
// requests and follow their own requests and bookings.  Request creation
// is rate limited so a misbehaving client cannot flood a host's inbox.
func RegisterGuest(e *echo.Echo, req *handler.RequestHandler, bk *handler.BookingHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleGuest),
	)
	createMW := []echo.MiddlewareFunc{}
	if rdb != nil {
		rlCfg := config.LoadRateLimitConfig()
		createMW = append(createMW, middleware.NewTokenBucket(rlCfg, rdb))
	}
	g.POST("/listings/:id/requests", req.CreateRequest, createMW...)
	g.DELETE("/requests/:id", req.WithdrawRequest)
	g.GET("/my-requests", req.ListMyRequests)
	g.GET("/my-bookings", bk.ListMyBookings)
}

// RegisterHost registers host-scoped endpoints under /v1.  Hosts respond
// to requests, manage booking lifecycles and edit their calendars.
func RegisterHost(e *echo.Echo, req *handler.RequestHandler, bk *handler.BookingHandler, cal *handler.CalendarHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleHost),
	)
	g.POST("/requests/:id/respond", req.RespondToRequest)
	g.GET("/host/requests", req.ListRequestsForHost)
	g.POST("/host/requests/sweep", req.SweepExpired)
	g.GET("/host/bookings", bk.ListHostBookings)
	g.POST("/bookings/:id/status", bk.ChangeStatus)
	g.PUT("/bookings/:id", bk.EditBooking)
	g.PUT("/listings/:id/calendar", cal.UpdateCalendar)
	g.DELETE("/listings/:id/calendar", cal.DeleteCalendarRange)
}

// RegisterShared registers detail reads either party of a reservation may
// perform.  Ownership is validated inside the handlers, so both roles are
// accepted here.
func RegisterShared(e *echo.Echo, req *handler.RequestHandler, bk *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleGuest, middleware.RoleHost),
	)
	g.GET("/requests/:id", req.GetRequest)
	g.GET("/bookings/:id", bk.GetBooking)
}
