package model

import "time"

// Ticket is a sold seat on a flight.  At most one non-canceled ticket
// may exist per (flight, seat); canceled tickets free the seat for
// resale.  Once created a ticket is immutable except for cancellation.
//
// Fields:
//  ID               – primary key identifier.
//  FlightID         – flight the ticket is valid for.
//  SeatID           – seat assigned to the passenger.
//  UserID           – owning user (may be an account created at checkout).
//  PriceCents       – price paid, captured at purchase time.
//  PurchasedAt      – purchase timestamp (UTC).
//  IsCanceled       – cancellation flag.
//  CanceledAt       – when the ticket was canceled, nil otherwise.
//  PaymentSessionID – external checkout session that produced this
//                     ticket, empty for direct bookings.  Used to make
//                     payment completion idempotent.
type Ticket struct {
	ID               uint64     `json:"id"`                 // tickets.id
	FlightID         uint64     `json:"flight_id"`          // tickets.flight_id
	SeatID           uint64     `json:"seat_id"`            // tickets.seat_id
	UserID           uint64     `json:"user_id"`            // tickets.user_id
	PriceCents       uint32     `json:"price_cents"`        // tickets.price_cents
	PurchasedAt      time.Time  `json:"purchased_at"`       // tickets.purchased_at
	IsCanceled       bool       `json:"is_canceled"`        // tickets.is_canceled
	CanceledAt       *time.Time `json:"canceled_at"`        // tickets.canceled_at
	PaymentSessionID string     `json:"payment_session_id"` // tickets.payment_session_id
}
