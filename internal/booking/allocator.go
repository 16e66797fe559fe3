// Package booking implements the seat allocation transaction and the
// payment completion reconciler.  Both paths create tickets through the
// same invariant: at most one non-canceled ticket per (flight, seat),
// guarded authoritatively by the seat_locks key under concurrency.
package booking

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/queue"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
	"github.com/brunacrodrigues/vitoria-airlines/internal/utils"
)

// Buyer carries the identity of whoever is purchasing.  UserID is zero
// for anonymous buyers, in which case the personal fields are required
// and an account is created as part of the transaction.
type Buyer struct {
	UserID   uint64
	FullName string
	Email    string
	Passport string
	Phone    string
}

// Allocator executes booking attempts.  Every attempt is one explicit
// transaction; preconditions are re-checked inside it so the decision
// holds at commit time, not just at render time.  Losing the race for a
// seat surfaces as repository.ErrSeatTaken.
type Allocator struct {
	db         *sql.DB
	flights    *repository.FlightRepo
	seats      *repository.SeatRepo
	tickets    *repository.TicketRepo
	users      *repository.UserRepo
	notifier   *service.Notifier
	bcryptCost int
}

// NewAllocator constructs an Allocator.  All dependencies must be
// non-nil.
func NewAllocator(db *sql.DB, flights *repository.FlightRepo, seats *repository.SeatRepo, tickets *repository.TicketRepo, users *repository.UserRepo, notifier *service.Notifier, bcryptCost int) *Allocator {
	if db == nil || flights == nil || seats == nil || tickets == nil || users == nil || notifier == nil {
		panic("nil dependency passed to NewAllocator")
	}
	return &Allocator{
		db: db, flights: flights, seats: seats, tickets: tickets, users: users,
		notifier: notifier, bcryptCost: bcryptCost,
	}
}

// PriceFor returns the server-side price of a seat class on a flight.
// The caller's idea of the price is never trusted.
func PriceFor(f *model.Flight, class model.SeatClass) uint32 {
	if class == model.SeatExecutive {
		return f.ExecutivePriceCents
	}
	return f.EconomyPriceCents
}

// CancelableAt reports whether a ticket on the flight may still be
// canceled by its owner at the given instant.  Cancellation closes a
// fixed cutoff before departure and is never possible once the flight
// left the Scheduled state.
func CancelableAt(f *model.Flight, now time.Time, cutoff time.Duration) bool {
	return f.Status == model.FlightScheduled && now.Before(f.DepartureUTC.Add(-cutoff))
}

// Book sells one seat on one flight to the buyer.  On success exactly
// one ticket row exists and a confirmation event is dispatched after
// commit (fire-and-forget; a notification failure cannot undo the
// sale).  Losing the seat race returns repository.ErrSeatTaken, which
// callers surface as a retryable conflict.
func (a *Allocator) Book(ctx context.Context, flightID, seatID uint64, buyer Buyer) (*model.Ticket, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	userID, email, err := a.resolveBuyerTx(ctx, tx, buyer)
	if err != nil {
		return nil, err
	}
	ticket, ev, err := a.bookLegTx(ctx, tx, flightID, seatID, userID, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	ev.BuyerEmail = email
	a.notifier.BookingConfirmed(*ev)
	return ticket, nil
}

// bookLegTx performs the in-transaction part of selling one seat:
// flight bookable, seat on the right airplane, seat free.  The fast
// existence check keeps the common failure cheap; the seat_locks insert
// inside CreateTx is what actually decides races.
func (a *Allocator) bookLegTx(ctx context.Context, tx *sql.Tx, flightID, seatID, userID uint64, sessionID string) (*model.Ticket, *queue.BookingConfirmedEvent, error) {
	flight, err := a.flights.GetByIDTx(ctx, tx, flightID)
	if err != nil {
		if err == repository.ErrFlightNotFound {
			return nil, nil, ErrFlightNotBookable
		}
		return nil, nil, err
	}
	if flight.Status != model.FlightScheduled {
		return nil, nil, ErrFlightNotBookable
	}

	seat, err := a.seats.GetByIDTx(ctx, tx, seatID)
	if err != nil {
		if err == repository.ErrSeatNotFound {
			return nil, nil, ErrSeatWrongAirplane
		}
		return nil, nil, err
	}
	if seat.AirplaneID != flight.AirplaneID {
		return nil, nil, ErrSeatWrongAirplane
	}

	taken, err := a.tickets.HasActiveTx(ctx, tx, flightID, seatID)
	if err != nil {
		return nil, nil, err
	}
	if taken {
		return nil, nil, repository.ErrSeatTaken
	}

	ticket := &model.Ticket{
		FlightID:         flightID,
		SeatID:           seatID,
		UserID:           userID,
		PriceCents:       PriceFor(flight, seat.Class),
		PaymentSessionID: sessionID,
	}
	if err := a.tickets.CreateTx(ctx, tx, ticket); err != nil {
		return nil, nil, err
	}

	ev := &queue.BookingConfirmedEvent{
		TicketID:     ticket.ID,
		FlightNumber: flight.Number,
		DepartureUTC: flight.DepartureUTC.Format(time.RFC3339),
		SeatLabel:    seat.Label(),
		SeatClass:    string(seat.Class),
		PriceCents:   ticket.PriceCents,
		ConfirmedAt:  ticket.PurchasedAt.Format(time.RFC3339),
	}
	return ticket, ev, nil
}

// resolveBuyerTx turns a Buyer into a concrete user id, enforcing the
// passport rules.  Authenticated buyers must match the passport on
// their profile (or link one now); anonymous buyers must present full
// personal data that collides with no existing account.
func (a *Allocator) resolveBuyerTx(ctx context.Context, tx *sql.Tx, buyer Buyer) (uint64, string, error) {
	passport := strings.TrimSpace(buyer.Passport)

	if buyer.UserID != 0 {
		user, err := a.users.GetByID(ctx, buyer.UserID)
		if err != nil {
			return 0, "", err
		}
		profile, err := a.users.GetProfileTx(ctx, tx, buyer.UserID)
		if err != nil {
			return 0, "", err
		}
		switch {
		case profile != nil:
			if passport != "" && passport != profile.PassportNumber {
				return 0, "", ErrPassportMismatch
			}
		case passport == "":
			return 0, "", ErrMissingBuyerFields
		default:
			linked, err := a.users.FindUserByPassportTx(ctx, tx, passport)
			if err != nil {
				return 0, "", err
			}
			if linked != 0 && linked != buyer.UserID {
				return 0, "", repository.ErrPassportExists
			}
			p := &model.CustomerProfile{UserID: buyer.UserID, PassportNumber: passport, Phone: buyer.Phone}
			if err := a.users.CreateProfileTx(ctx, tx, p); err != nil {
				return 0, "", err
			}
		}
		return user.ID, user.Email, nil
	}

	// Anonymous purchase: all personal fields are required.
	if buyer.FullName == "" || buyer.Email == "" || passport == "" {
		return 0, "", ErrMissingBuyerFields
	}
	exists, err := a.users.EmailExistsTx(ctx, tx, buyer.Email)
	if err != nil {
		return 0, "", err
	}
	if exists {
		return 0, "", repository.ErrEmailExists
	}
	linked, err := a.users.FindUserByPassportTx(ctx, tx, passport)
	if err != nil {
		return 0, "", err
	}
	if linked != 0 {
		return 0, "", repository.ErrPassportExists
	}

	user, err := a.createAccountTx(ctx, tx, buyer, passport)
	if err != nil {
		return 0, "", err
	}
	return user.ID, user.Email, nil
}

// createAccountTx creates a customer account with an unguessable
// placeholder password; the buyer receives a set-password link and the
// external identity service takes over from there.
func (a *Allocator) createAccountTx(ctx context.Context, tx *sql.Tx, buyer Buyer, passport string) (*model.User, error) {
	placeholder, err := utils.RandomHex(24)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(placeholder, a.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		FullName:     buyer.FullName,
		Email:        buyer.Email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
	}
	if err := a.users.CreateTx(ctx, tx, user); err != nil {
		return nil, err
	}
	profile := &model.CustomerProfile{UserID: user.ID, PassportNumber: passport, Phone: buyer.Phone}
	if err := a.users.CreateProfileTx(ctx, tx, profile); err != nil {
		return nil, err
	}
	return user, nil
}
