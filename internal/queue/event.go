// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  All queues are durable; publishers and the consumer
// declare them idempotently.
const (
	BookingConfirmedQueue = "booking.confirmed"
	FlightStatusQueue     = "flight.status"
	MailOutboundQueue     = "mail.outbound"
)

// BookingConfirmedEvent is published after a booking transaction
// commits.  It carries enough information for downstream consumers to
// mail a confirmation or feed analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
	TicketID     uint64 `json:"ticket_id"`
	FlightNumber string `json:"flight_number"`
	DepartureUTC string `json:"departure_utc"`
	SeatLabel    string `json:"seat_label"`
	SeatClass    string `json:"seat_class"`
	PriceCents   uint32 `json:"price_cents"`
	BuyerEmail   string `json:"buyer_email"`
	ConfirmedAt  string `json:"confirmed_at"`
}

// FlightStatusEvent is published when a flight transitions state, both
// by the lifecycle sweeper and by staff cancellation.  Recipients are
// the ticket holders plus the admin group.
type FlightStatusEvent struct {
	FlightID     uint64   `json:"flight_id"`
	FlightNumber string   `json:"flight_number"`
	OldStatus    string   `json:"old_status"`
	NewStatus    string   `json:"new_status"`
	Recipients   []string `json:"recipients"`
	ChangedAt    string   `json:"changed_at"`
}

// MailEvent is a single outbound email.  Delivery is best-effort; the
// mail worker logs failures and never feeds back into booking state.
type MailEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
