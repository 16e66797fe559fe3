package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brunacrodrigues/vitoria-airlines/internal/booking"
	"github.com/brunacrodrigues/vitoria-airlines/internal/payment"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
)

// BookingHandler serves the purchase flow: direct bookings, checkout
// sessions, payment completion, ticket listing and cancellation.  All
// mutating paths delegate to the booking package; the handler only
// binds requests and translates sentinel errors to status codes.
type BookingHandler struct {
	Alloc        *booking.Allocator
	Reconciler   *booking.Reconciler
	TicketRepo   *repository.TicketRepo
	FlightRepo   *repository.FlightRepo
	CancelCutoff time.Duration
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(alloc *booking.Allocator, reconciler *booking.Reconciler, ticketRepo *repository.TicketRepo, flightRepo *repository.FlightRepo, cancelCutoff time.Duration) *BookingHandler {
	if alloc == nil || reconciler == nil || ticketRepo == nil || flightRepo == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Alloc:        alloc,
		Reconciler:   reconciler,
		TicketRepo:   ticketRepo,
		FlightRepo:   flightRepo,
		CancelCutoff: cancelCutoff,
	}
}

// BookSeat handles POST /v1/flights/:id/book.  The authenticated user
// buys one seat directly, without going through the payment provider.
// Losing the seat race returns 409 so the client can offer another
// seat.
func (h *BookingHandler) BookSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	flightID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	var body struct {
		SeatID   uint64 `json:"seat_id"`
		Passport string `json:"passport"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&body); err != nil || body.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id is required"})
	}

	buyer := booking.Buyer{UserID: userID, Passport: body.Passport, Phone: body.Phone}
	ticket, err := h.Alloc.Book(c.Request().Context(), flightID, body.SeatID, buyer)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// CreateCheckout handles POST /v1/checkout.  It accepts one or two legs
// and either an authenticated caller or full personal fields for a
// guest buyer.  Nothing is written locally; the response carries the
// provider's payment URL.
func (h *BookingHandler) CreateCheckout(c echo.Context) error {
	var body struct {
		Legs     []payment.Leg `json:"legs"`
		FullName string        `json:"full_name"`
		Email    string        `json:"email"`
		Passport string        `json:"passport"`
		Phone    string        `json:"phone"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Legs) == 0 || len(body.Legs) > 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "one or two legs required"})
	}
	for _, leg := range body.Legs {
		if leg.FlightID == 0 || leg.SeatID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each leg needs flight_id and seat_id"})
		}
	}

	meta := payment.Metadata{
		Legs:     body.Legs,
		FullName: body.FullName,
		Email:    body.Email,
		Passport: body.Passport,
		Phone:    body.Phone,
	}
	// A bearer token, when present, overrides the personal fields.
	if userID, err := getUserID(c); err == nil {
		meta.UserID = userID
	} else if body.FullName == "" || body.Email == "" || body.Passport == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest checkout requires full_name, email and passport"})
	}

	url, sessionID, err := h.Reconciler.CreateCheckout(c.Request().Context(), meta)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"payment_url": url, "session_id": sessionID})
}

// CompleteCheckout handles POST /v1/checkout/complete.  The client
// reports a session id after being redirected back; the paid status is
// re-verified with the provider, never trusted from the redirect.
func (h *BookingHandler) CompleteCheckout(c echo.Context) error {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&body); err != nil || body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}

	result, err := h.Reconciler.CompleteBooking(c.Request().Context(), body.SessionID)
	if err != nil {
		if errors.Is(err, booking.ErrPaymentNotCompleted) {
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not completed"})
		}
		if errors.Is(err, booking.ErrSeatTakenAfterPayment) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "seat no longer available",
				"message": "the seat was sold while payment was in progress; a refund will be issued",
			})
		}
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// MyTickets handles GET /v1/my-tickets.
func (h *BookingHandler) MyTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets, err := h.TicketRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": tickets, "total": len(tickets)})
}

// CancelTicket handles DELETE /v1/tickets/:id.  Cancellation closes a
// fixed cutoff before departure; freeing the seat and flipping the
// ticket happen in one transaction so the seat is resellable the moment
// the response is sent.
func (h *BookingHandler) CancelTicket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx := c.Request().Context()

	ticket, err := h.TicketRepo.GetByID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrTicketNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ticket.UserID != userID {
		// Hide other users' tickets instead of confirming they exist.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}
	if ticket.IsCanceled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already canceled"})
	}

	flight, err := h.FlightRepo.GetByID(ctx, ticket.FlightID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !booking.CancelableAt(flight, time.Now().UTC(), h.CancelCutoff) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket can no longer be canceled"})
	}

	tx, err := h.FlightRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.TicketRepo.CancelTx(ctx, tx, ticketID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already canceled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	return c.NoContent(http.StatusNoContent)
}

// bookingError maps booking and repository sentinels to status codes.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrFlightNotBookable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "flight is not open for booking"})
	case errors.Is(err, booking.ErrSeatWrongAirplane):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat does not belong to this flight"})
	case errors.Is(err, booking.ErrMissingBuyerFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing buyer fields"})
	case errors.Is(err, booking.ErrPassportMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": "passport differs from profile"})
	case errors.Is(err, repository.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already taken"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "an account with this email already exists"})
	case errors.Is(err, repository.ErrPassportExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "passport is linked to another account"})
	case errors.Is(err, repository.ErrFlightNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
