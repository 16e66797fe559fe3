package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/queue"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/scheduling"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
)

// StaffHandler serves the fleet- and schedule-management endpoints used
// by admins and employees.  Flight writes are availability-checked and
// version-guarded; airplane seat edits regenerate the seat map in one
// transaction.
type StaffHandler struct {
	FlightRepo   *repository.FlightRepo
	AirplaneRepo *repository.AirplaneRepo
	AirportRepo  *repository.AirportRepo
	SeatRepo     *repository.SeatRepo
	TicketRepo   *repository.TicketRepo
	Checker      *scheduling.Checker
	Notifier     *service.Notifier
}

// NewStaffHandler constructs a StaffHandler.  All dependencies must be
// non-nil.
func NewStaffHandler(flightRepo *repository.FlightRepo, airplaneRepo *repository.AirplaneRepo, airportRepo *repository.AirportRepo, seatRepo *repository.SeatRepo, ticketRepo *repository.TicketRepo, checker *scheduling.Checker, notifier *service.Notifier) *StaffHandler {
	if flightRepo == nil || airplaneRepo == nil || airportRepo == nil || seatRepo == nil || ticketRepo == nil || checker == nil || notifier == nil {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{
		FlightRepo:   flightRepo,
		AirplaneRepo: airplaneRepo,
		AirportRepo:  airportRepo,
		SeatRepo:     seatRepo,
		TicketRepo:   ticketRepo,
		Checker:      checker,
		Notifier:     notifier,
	}
}

// flightRequest is the write payload shared by flight create and edit.
type flightRequest struct {
	Number              string `json:"number"`
	AirplaneID          uint64 `json:"airplane_id"`
	OriginID            uint64 `json:"origin_id"`
	DestinationID       uint64 `json:"destination_id"`
	DepartureUTC        string `json:"departure_utc"` // RFC 3339
	DurationMinutes     int    `json:"duration_minutes"`
	EconomyPriceCents   uint32 `json:"economy_price_cents"`
	ExecutivePriceCents uint32 `json:"executive_price_cents"`
	Version             uint32 `json:"version"` // required on edit only
}

// validateFlight checks field-level rules and parses the departure.
// Referential and scheduling rules are checked separately.
func validateFlight(body flightRequest) (time.Time, string) {
	if body.Number == "" {
		return time.Time{}, "number is required"
	}
	if body.AirplaneID == 0 || body.OriginID == 0 || body.DestinationID == 0 {
		return time.Time{}, "airplane_id, origin_id and destination_id are required"
	}
	if body.OriginID == body.DestinationID {
		return time.Time{}, "origin and destination must differ"
	}
	if body.DurationMinutes <= 0 {
		return time.Time{}, "duration_minutes must be positive"
	}
	if body.ExecutivePriceCents < body.EconomyPriceCents {
		return time.Time{}, "executive price must be at least the economy price"
	}
	departure, err := time.Parse(time.RFC3339, body.DepartureUTC)
	if err != nil {
		return time.Time{}, "departure_utc must be RFC 3339"
	}
	return departure.UTC(), ""
}

// checkFlightRefs verifies that both airports exist and the airplane is
// active.  Returns a client-facing message, or empty when fine.
func (h *StaffHandler) checkFlightRefs(c echo.Context, body flightRequest) (string, error) {
	ctx := c.Request().Context()
	for _, airportID := range []uint64{body.OriginID, body.DestinationID} {
		if _, err := h.AirportRepo.GetByID(ctx, airportID); err != nil {
			if err == repository.ErrAirportNotFound {
				return "airport not found", nil
			}
			return "", err
		}
	}
	airplane, err := h.AirplaneRepo.GetByID(ctx, body.AirplaneID)
	if err != nil {
		if err == repository.ErrAirplaneNotFound {
			return "airplane not found", nil
		}
		return "", err
	}
	if airplane.Status != model.AirplaneActive {
		return "airplane is not active", nil
	}
	return "", nil
}

// CreateFlight handles POST /v1/flights.
func (h *StaffHandler) CreateFlight(c echo.Context) error {
	var body flightRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	departure, msg := validateFlight(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if msg, err := h.checkFlightRefs(c, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	} else if msg != "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	existing, err := h.FlightRepo.ListByAirplane(ctx, body.AirplaneID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cand := scheduling.Candidate{
		Departure:       departure,
		Duration:        time.Duration(body.DurationMinutes) * time.Minute,
		OriginAirportID: body.OriginID,
	}
	if !h.Checker.IsAvailable(existing, cand) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "airplane is not available for this schedule"})
	}

	flight := &model.Flight{
		Number:              body.Number,
		AirplaneID:          body.AirplaneID,
		OriginID:            body.OriginID,
		DestinationID:       body.DestinationID,
		DepartureUTC:        departure,
		DurationMinutes:     body.DurationMinutes,
		EconomyPriceCents:   body.EconomyPriceCents,
		ExecutivePriceCents: body.ExecutivePriceCents,
	}
	if err := h.FlightRepo.Create(ctx, flight); err != nil {
		if errors.Is(err, repository.ErrFlightNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "flight number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, flight)
}

// UpdateFlight handles PUT /v1/flights/:id.  The request must carry the
// version the client last read; a stale version is rejected with 409 so
// concurrent staff edits never silently overwrite each other.
func (h *StaffHandler) UpdateFlight(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	var body flightRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	departure, msg := validateFlight(body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	current, err := h.FlightRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrFlightNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if current.Status != model.FlightScheduled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only scheduled flights can be edited"})
	}
	if msg, err := h.checkFlightRefs(c, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	} else if msg != "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
	}

	existing, err := h.FlightRepo.ListByAirplane(ctx, body.AirplaneID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cand := scheduling.Candidate{
		Departure:       departure,
		Duration:        time.Duration(body.DurationMinutes) * time.Minute,
		OriginAirportID: body.OriginID,
		ExcludeFlightID: id,
	}
	if !h.Checker.IsAvailable(existing, cand) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "airplane is not available for this schedule"})
	}

	flight := &model.Flight{
		ID:                  id,
		Number:              body.Number,
		AirplaneID:          body.AirplaneID,
		OriginID:            body.OriginID,
		DestinationID:       body.DestinationID,
		DepartureUTC:        departure,
		DurationMinutes:     body.DurationMinutes,
		EconomyPriceCents:   body.EconomyPriceCents,
		ExecutivePriceCents: body.ExecutivePriceCents,
		Version:             body.Version,
	}
	if err := h.FlightRepo.UpdateVersioned(ctx, flight); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			return c.JSON(http.StatusConflict, echo.Map{"error": "flight was modified by someone else, reload and retry"})
		case errors.Is(err, repository.ErrFlightNumberExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "flight number already exists"})
		case errors.Is(err, repository.ErrFlightNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, flight)
}

// CancelFlight handles DELETE /v1/flights/:id.  Every active ticket
// holder is notified through the status queue after the cancelation
// commits.
func (h *StaffHandler) CancelFlight(c echo.Context) error {
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
	if err := h.FlightRepo.Cancel(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrFlightNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "only scheduled flights can be canceled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	recipients, err := h.TicketRepo.HolderEmails(ctx, id)
	if err != nil {
		c.Logger().Warnf("holder emails for flight %d: %v", id, err)
	}
	h.Notifier.FlightStatus(queue.FlightStatusEvent{
		FlightID:     id,
		FlightNumber: flight.Number,
		OldStatus:    string(model.FlightScheduled),
		NewStatus:    string(model.FlightCanceled),
		Recipients:   recipients,
		ChangedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return c.NoContent(http.StatusNoContent)
}
