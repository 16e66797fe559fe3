package router // wires HTTP routes to handlers and middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/brunacrodrigues/vitoria-airlines/internal/config"
	"github.com/brunacrodrigues/vitoria-airlines/internal/handler"
	"github.com/brunacrodrigues/vitoria-airlines/internal/middleware"
	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints: flight
// search (cached when Redis is up), flight detail, seat maps and the
// airport list.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, redisCfg config.RedisConfig, rdb *redis.Client) {
	e.GET("/v1/flights/search", p.SearchFlights, middleware.NewSearchCache(redisCfg, rdb))
	e.GET("/v1/flights/:id", p.GetFlight)
	e.GET("/v1/flights/:id/seats", p.FlightSeatMap)
	e.GET("/v1/airports", p.ListAirports)
}

// RegisterBooking registers the purchase flow.  Checkout accepts both
// authenticated and guest buyers, so it carries the optional variant of
// the JWT middleware; ticket management requires a real session.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	e.POST("/v1/checkout", b.CreateCheckout, middleware.OptionalJWTAuth(jwtSecret))
	e.POST("/v1/checkout/complete", b.CompleteCheckout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/flights/:id/book", b.BookSeat)
	auth.GET("/my-tickets", b.MyTickets)
	auth.DELETE("/tickets/:id", b.CancelTicket)
}

// RegisterStaff registers the fleet- and schedule-management endpoints,
// restricted to admins and employees.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole(model.RoleAdmin, model.RoleEmployee))

	staff.POST("/flights", s.CreateFlight)
	staff.PUT("/flights/:id", s.UpdateFlight)
	staff.DELETE("/flights/:id", s.CancelFlight)

	staff.POST("/airplanes", s.CreateAirplane)
	staff.PUT("/airplanes/:id", s.UpdateAirplane)
	staff.GET("/airplanes", s.ListAirplanes)

	staff.POST("/airports", s.CreateAirport)
}
