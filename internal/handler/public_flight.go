package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
)

// PublicHandler serves the unauthenticated read endpoints: flight
// search, flight detail and the seat map with live occupancy.
type PublicHandler struct {
	FlightRepo  *repository.FlightRepo
	AirportRepo *repository.AirportRepo
	SeatRepo    *repository.SeatRepo
	TicketRepo  *repository.TicketRepo
}

// NewPublicHandler constructs a PublicHandler.  All dependencies must
// be non-nil.
func NewPublicHandler(flightRepo *repository.FlightRepo, airportRepo *repository.AirportRepo, seatRepo *repository.SeatRepo, ticketRepo *repository.TicketRepo) *PublicHandler {
	if flightRepo == nil || airportRepo == nil || seatRepo == nil || ticketRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{
		FlightRepo:  flightRepo,
		AirportRepo: airportRepo,
		SeatRepo:    seatRepo,
		TicketRepo:  ticketRepo,
	}
}

// SearchFlights handles GET /v1/flights/search?origin=&destination=&date=.
// Origin and destination are airport ids; date is a UTC calendar day in
// YYYY-MM-DD form.  Only scheduled flights are returned.
func (h *PublicHandler) SearchFlights(c echo.Context) error {
	origin, err := strconv.ParseUint(strings.TrimSpace(c.QueryParam("origin")), 10, 64)
	if err != nil || origin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid origin airport id"})
	}
	destination, err := strconv.ParseUint(strings.TrimSpace(c.QueryParam("destination")), 10, 64)
	if err != nil || destination == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid destination airport id"})
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(c.QueryParam("date")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}

	flights, err := h.FlightRepo.SearchByRoute(c.Request().Context(), origin, destination, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": flights, "total": len(flights)})
}

// GetFlight handles GET /v1/flights/:id.
func (h *PublicHandler) GetFlight(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	flight, err := h.FlightRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrFlightNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, flight)
}

// seatView is one seat of the flight's seat map, annotated with whether
// a non-canceled ticket currently occupies it.
type seatView struct {
	ID       uint64          `json:"id"`
	Row      int             `json:"row"`
	Letter   string          `json:"letter"`
	Class    model.SeatClass `json:"class"`
	Occupied bool            `json:"occupied"`
}

// FlightSeatMap handles GET /v1/flights/:id/seats.  Occupancy is a
// snapshot; the booking transaction is the authority, so a seat shown
// free may still be lost to a concurrent buyer.
func (h *PublicHandler) FlightSeatMap(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	ctx := c.Request().Context()

	flight, err := h.FlightRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrFlightNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.ListByAirplane(ctx, flight.AirplaneID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied, err := h.TicketRepo.OccupiedSeatIDs(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		views = append(views, seatView{
			ID:       s.ID,
			Row:      s.Row,
			Letter:   s.Letter,
			Class:    s.Class,
			Occupied: occupied[s.ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"flight_id":             flight.ID,
		"economy_price_cents":   flight.EconomyPriceCents,
		"executive_price_cents": flight.ExecutivePriceCents,
		"seats":                 views,
	})
}

// ListAirports handles GET /v1/airports.
func (h *PublicHandler) ListAirports(c echo.Context) error {
	airports, err := h.AirportRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": airports, "total": len(airports)})
}
