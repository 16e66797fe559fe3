package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides access to tickets and their seat locks.  A row in
// seat_locks exists exactly while its ticket is non-canceled; the
// table's primary key on (flight_id, seat_id) is the authoritative
// guard against double-selling a seat, and every code path that creates
// or cancels a ticket maintains the pairing inside one transaction.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts a ticket and its seat-lock row within the provided
// transaction.  When a concurrent transaction already locked the same
// (flight, seat), the insert collides with the lock table's primary key
// and ErrSeatTaken is returned; the caller must roll back and surface
// the loss of the race as a user-facing conflict.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (flight_id, seat_id, user_id, price_cents, purchased_at, payment_session_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	t.PurchasedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx, q,
		t.FlightID, t.SeatID, t.UserID, t.PriceCents, t.PurchasedAt, t.PaymentSessionID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	const lock = `INSERT INTO seat_locks (flight_id, seat_id, ticket_id) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, lock, t.FlightID, t.SeatID, t.ID); err != nil {
		if isDuplicateKey(err) {
			return ErrSeatTaken
		}
		return err
	}
	return nil
}

// HasActiveTx reports whether a non-canceled ticket exists for the
// (flight, seat) pair.  This is the fast-path check booking runs before
// inserting; the seat_locks key remains the authority under races.
func (r *TicketRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, flightID, seatID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM seat_locks WHERE flight_id = ? AND seat_id = ?)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, flightID, seatID).Scan(&exists)
	return exists, err
}

// HasActive is the pool variant of HasActiveTx, for callers outside a
// transaction such as the checkout pre-check.
func (r *TicketRepo) HasActive(ctx context.Context, flightID, seatID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM seat_locks WHERE flight_id = ? AND seat_id = ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, flightID, seatID).Scan(&exists)
	return exists, err
}

// GetByID retrieves a single ticket.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = `SELECT id, flight_id, seat_id, user_id, price_cents, purchased_at, is_canceled, canceled_at, payment_session_id
	           FROM tickets WHERE id = ?`
	var t model.Ticket
	var canceledAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.FlightID, &t.SeatID, &t.UserID, &t.PriceCents, &t.PurchasedAt,
		&t.IsCanceled, &canceledAt, &t.PaymentSessionID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if canceledAt.Valid {
		ts := canceledAt.Time
		t.CanceledAt = &ts
	}
	return &t, nil
}

// CancelTx flips the cancellation flag and removes the seat-lock row in
// the provided transaction, freeing the seat for resale.  Canceling an
// already-canceled ticket yields ErrConflict.
func (r *TicketRepo) CancelTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	const q = `UPDATE tickets SET is_canceled = TRUE, canceled_at = ? WHERE id = ? AND is_canceled = FALSE`
	res, err := tx.ExecContext(ctx, q, time.Now().UTC(), ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM seat_locks WHERE ticket_id = ?`, ticketID)
	return err
}

// ListBySession returns all tickets created from a payment session.
// The payment reconciler uses this to make completion idempotent.
func (r *TicketRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Ticket, error) {
	const q = `SELECT id, flight_id, seat_id, user_id, price_cents, purchased_at, is_canceled, canceled_at, payment_session_id
	           FROM tickets WHERE payment_session_id = ? ORDER BY id`
	return r.queryTickets(ctx, q, sessionID)
}

// ListActiveByFlight returns all non-canceled tickets for a flight.
func (r *TicketRepo) ListActiveByFlight(ctx context.Context, flightID uint64) ([]model.Ticket, error) {
	const q = `SELECT id, flight_id, seat_id, user_id, price_cents, purchased_at, is_canceled, canceled_at, payment_session_id
	           FROM tickets WHERE flight_id = ? AND is_canceled = FALSE ORDER BY id`
	return r.queryTickets(ctx, q, flightID)
}

func (r *TicketRepo) queryTickets(ctx context.Context, q string, args ...interface{}) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var canceledAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.FlightID, &t.SeatID, &t.UserID, &t.PriceCents, &t.PurchasedAt,
			&t.IsCanceled, &canceledAt, &t.PaymentSessionID,
		); err != nil {
			return nil, err
		}
		if canceledAt.Valid {
			ts := canceledAt.Time
			t.CanceledAt = &ts
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TicketDetail joins a ticket with its flight and seat for customer
// listings.
type TicketDetail struct {
	ID           uint64     `json:"id"`
	FlightNumber string     `json:"flight_number"`
	DepartureUTC time.Time  `json:"departure_utc"`
	SeatRow      int        `json:"seat_row"`
	SeatLetter   string     `json:"seat_letter"`
	SeatClass    string     `json:"seat_class"`
	PriceCents   uint32     `json:"price_cents"`
	IsCanceled   bool       `json:"is_canceled"`
	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
}

// ListByUser returns all tickets of a user, newest purchase first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	const q = `SELECT t.id, f.flight_number, f.departure_utc, s.row_num, s.letter, s.class,
	                  t.price_cents, t.is_canceled, t.canceled_at
	           FROM tickets t
	           JOIN flights f ON f.id = t.flight_id
	           JOIN seats s ON s.id = t.seat_id
	           WHERE t.user_id = ?
	           ORDER BY t.purchased_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]TicketDetail, 0)
	for rows.Next() {
		var d TicketDetail
		var canceledAt sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.FlightNumber, &d.DepartureUTC, &d.SeatRow, &d.SeatLetter, &d.SeatClass,
			&d.PriceCents, &d.IsCanceled, &canceledAt,
		); err != nil {
			return nil, err
		}
		if canceledAt.Valid {
			ts := canceledAt.Time
			d.CanceledAt = &ts
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// OccupiedSeatIDs returns the set of seats with an active ticket on the
// flight; the seat-map endpoint merges this with the airplane layout.
func (r *TicketRepo) OccupiedSeatIDs(ctx context.Context, flightID uint64) (map[uint64]bool, error) {
	const q = `SELECT seat_id FROM seat_locks WHERE flight_id = ?`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupied := make(map[uint64]bool)
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		occupied[sid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return occupied, nil
}

// HolderEmails returns the distinct email addresses of everyone holding
// an active ticket on the flight, for status-change notifications.
func (r *TicketRepo) HolderEmails(ctx context.Context, flightID uint64) ([]string, error) {
	const q = `SELECT DISTINCT u.email
	           FROM tickets t
	           JOIN users u ON u.id = t.user_id
	           WHERE t.flight_id = ? AND t.is_canceled = FALSE`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return emails, nil
}

// CountActiveByAirplaneTx counts active tickets sitting on seats of the
// airplane whose flights have not finished.  Seat regeneration refuses
// to run while this is non-zero, because replacing seats would orphan
// those tickets' seat references.
func (r *TicketRepo) CountActiveByAirplaneTx(ctx context.Context, tx *sql.Tx, airplaneID uint64) (int, error) {
	const q = `SELECT COUNT(*)
	           FROM tickets t
	           JOIN flights f ON f.id = t.flight_id
	           WHERE f.airplane_id = ? AND t.is_canceled = FALSE
	             AND f.status NOT IN ('COMPLETED','CANCELED')`
	var n int
	err := tx.QueryRowContext(ctx, q, airplaneID).Scan(&n)
	return n, err
}
