package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/payment"
	"github.com/brunacrodrigues/vitoria-airlines/internal/queue"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
	"github.com/brunacrodrigues/vitoria-airlines/internal/utils"
)

// Result reports the tickets produced by completing a payment session.
// ReturnTicketID is zero for one-way bookings.  CreatedUserID is set
// when an account was created for an anonymous buyer.
type Result struct {
	OutboundTicketID uint64 `json:"outbound_ticket_id"`
	ReturnTicketID   uint64 `json:"return_ticket_id,omitempty"`
	CreatedUserID    uint64 `json:"created_user_id,omitempty"`
}

// Reconciler converts a confirmed external payment into committed
// tickets.  A checkout session is created before any money moves, so
// between session creation and completion other bookings may have taken
// the seats; the reconciler re-runs the full allocation invariant and
// escalates post-payment losses instead of swallowing them.
type Reconciler struct {
	alloc    *Allocator
	provider payment.Provider
	tickets  *repository.TicketRepo
	users    *repository.UserRepo
	notifier *service.Notifier
	baseURL  string
}

// NewReconciler constructs a Reconciler on top of an Allocator, whose
// transaction helpers it shares so both paths enforce one invariant.
func NewReconciler(alloc *Allocator, provider payment.Provider, users *repository.UserRepo, notifier *service.Notifier, baseURL string) *Reconciler {
	if alloc == nil || provider == nil || users == nil || notifier == nil {
		panic("nil dependency passed to NewReconciler")
	}
	return &Reconciler{
		alloc: alloc, provider: provider, tickets: alloc.tickets,
		users: users, notifier: notifier, baseURL: baseURL,
	}
}

// CreateCheckout opens a payment session for one or two legs.  Prices
// are computed server-side per leg; the booking intent travels in the
// session metadata and nothing is written locally until the provider
// confirms payment.
func (r *Reconciler) CreateCheckout(ctx context.Context, meta payment.Metadata) (string, string, error) {
	items := make([]payment.Item, 0, len(meta.Legs))
	for _, leg := range meta.Legs {
		flight, err := r.alloc.flights.GetByID(ctx, leg.FlightID)
		if err != nil {
			return "", "", err
		}
		if flight.Status != model.FlightScheduled {
			return "", "", ErrFlightNotBookable
		}
		seats, err := r.alloc.seats.ListByAirplane(ctx, flight.AirplaneID)
		if err != nil {
			return "", "", err
		}
		var seat *model.Seat
		for i := range seats {
			if seats[i].ID == leg.SeatID {
				seat = &seats[i]
				break
			}
		}
		if seat == nil {
			return "", "", ErrSeatWrongAirplane
		}
		// Refuse to open a session for a seat that is already sold.
		// The in-transaction check at completion stays authoritative;
		// this only keeps money from moving for a seat that was gone
		// before the session even existed.
		taken, err := r.tickets.HasActive(ctx, leg.FlightID, leg.SeatID)
		if err != nil {
			return "", "", err
		}
		if taken {
			return "", "", repository.ErrSeatTaken
		}
		items = append(items, payment.Item{
			Description: fmt.Sprintf("Flight %s seat %s (%s)", flight.Number, seat.Label(), seat.Class),
			AmountCents: PriceFor(flight, seat.Class),
		})
	}

	encoded, err := meta.Encode()
	if err != nil {
		return "", "", err
	}
	return r.provider.CreateCheckoutSession(ctx, items, encoded,
		r.baseURL+"/checkout/success", r.baseURL+"/checkout/cancel")
}

// CompleteBooking materializes tickets for a paid session.  The flow is
// idempotent: tickets are keyed by session id, so refreshing the
// success page finds the earlier result instead of double-selling.  All
// legs commit in one transaction; if any seat was lost after payment
// the whole completion fails with ErrSeatTakenAfterPayment and the
// incident is logged for manual refund.
func (r *Reconciler) CompleteBooking(ctx context.Context, sessionID string) (*Result, error) {
	sess, err := r.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return nil, ErrPaymentNotCompleted
	}

	// Duplicate completion: the session already produced tickets.
	if res, ok, err := r.existingResult(ctx, sessionID); err != nil {
		return nil, err
	} else if ok {
		return res, nil
	}

	meta, err := payment.DecodeMetadata(sess.Metadata)
	if err != nil {
		return nil, err
	}

	tx, err := r.alloc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	userID, email, createdUser, err := r.resolveSessionBuyerTx(ctx, tx, meta)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var events []queue.BookingConfirmedEvent
	for i, leg := range meta.Legs {
		ticket, ev, err := r.alloc.bookLegTx(ctx, tx, leg.FlightID, leg.SeatID, userID, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSeatTaken) {
				// A concurrent completion of this same session may have
				// won the lock; in that case its tickets are the answer.
				// existingResult reads outside this transaction, so it
				// sees the winner's committed rows.
				if res, ok, lookupErr := r.existingResult(ctx, sessionID); lookupErr == nil && ok {
					return res, nil
				}
				log.Printf("reconciler: seat %d on flight %d sold after payment, session=%s; manual refund required",
					leg.SeatID, leg.FlightID, sessionID)
				return nil, fmt.Errorf("leg %d: %w", i+1, ErrSeatTakenAfterPayment)
			}
			return nil, err
		}
		ev.BuyerEmail = email
		events = append(events, *ev)
		if i == 0 {
			res.OutboundTicketID = ticket.ID
		} else {
			res.ReturnTicketID = ticket.ID
		}
	}
	if createdUser != nil {
		res.CreatedUserID = createdUser.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	// Post-commit, best-effort: confirmations per leg, plus the
	// set-password mail for a freshly created account.
	for _, ev := range events {
		r.notifier.BookingConfirmed(ev)
		r.notifier.Mail(queue.MailEvent{
			To:      email,
			Subject: fmt.Sprintf("Your ticket for flight %s", ev.FlightNumber),
			Body:    fmt.Sprintf("Seat %s confirmed. Departure %s.", ev.SeatLabel, ev.DepartureUTC),
		})
	}
	if createdUser != nil {
		// The token only goes out if its hash landed in the store;
		// mailing a link nothing can validate helps no one.
		token := uuid.NewString()
		if err := r.users.StoreResetToken(ctx, createdUser.ID, utils.HashToken(token)); err != nil {
			log.Printf("reconciler: store set-password token for user %d: %v", createdUser.ID, err)
		} else {
			r.notifier.Mail(queue.MailEvent{
				To:      email,
				Subject: "Welcome to Vitoria Airlines — set your password",
				Body:    fmt.Sprintf("An account was created for your booking. Set your password: %s/account/set-password?token=%s", r.baseURL, token),
			})
		}
	}
	return res, nil
}

// existingResult checks whether the session already produced tickets.
func (r *Reconciler) existingResult(ctx context.Context, sessionID string) (*Result, bool, error) {
	tickets, err := r.tickets.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if len(tickets) == 0 {
		return nil, false, nil
	}
	res := &Result{OutboundTicketID: tickets[0].ID}
	if len(tickets) > 1 {
		res.ReturnTicketID = tickets[1].ID
	}
	return res, true, nil
}

// resolveSessionBuyerTx resolves the buyer recorded in session
// metadata.  Unlike the direct-booking path, an email collision does
// not reject here: payment was already captured, so the tickets attach
// to the existing account instead of failing the completion.
func (r *Reconciler) resolveSessionBuyerTx(ctx context.Context, tx *sql.Tx, meta payment.Metadata) (uint64, string, *model.User, error) {
	if meta.UserID != 0 {
		user, err := r.users.GetByID(ctx, meta.UserID)
		if err != nil {
			return 0, "", nil, err
		}
		return user.ID, user.Email, nil, nil
	}

	if meta.Email == "" || meta.FullName == "" {
		return 0, "", nil, ErrMissingBuyerFields
	}

	// Someone may have registered this email since checkout started.
	exists, err := r.users.EmailExistsTx(ctx, tx, meta.Email)
	if err != nil {
		return 0, "", nil, err
	}
	if exists {
		user, err := r.users.GetByEmail(ctx, meta.Email)
		if err != nil {
			return 0, "", nil, err
		}
		return user.ID, user.Email, nil, nil
	}

	buyer := Buyer{FullName: meta.FullName, Email: meta.Email, Passport: meta.Passport, Phone: meta.Phone}
	user, err := r.alloc.createAccountTx(ctx, tx, buyer, meta.Passport)
	if err != nil {
		// The passport may be linked to an existing account; attach the
		// booking there rather than stranding a paid session.
		if errors.Is(err, repository.ErrPassportExists) {
			linked, lookupErr := r.users.FindUserByPassportTx(ctx, tx, meta.Passport)
			if lookupErr != nil || linked == 0 {
				return 0, "", nil, err
			}
			owner, lookupErr := r.users.GetByID(ctx, linked)
			if lookupErr != nil {
				return 0, "", nil, err
			}
			return owner.ID, owner.Email, nil, nil
		}
		return 0, "", nil, err
	}
	return user.ID, user.Email, user, nil
}
