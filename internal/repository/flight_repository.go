package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// ErrFlightNotFound is returned when a flight lookup yields no rows.
var ErrFlightNotFound = errors.New("flight not found")

const flightColumns = `id, flight_number, airplane_id, origin_airport_id, destination_airport_id,
	departure_utc, duration_minutes, economy_price_cents, executive_price_cents, status, version,
	created_at, updated_at`

// FlightRepo provides the query surface over the flights table that the
// availability checker, booking services and sweeper depend on.  It
// holds no business logic itself.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo constructs a FlightRepo with the given DB handle.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// spanning flight, ticket and seat-lock writes.
func (r *FlightRepo) DB() *sql.DB { return r.db }

func scanFlight(row interface{ Scan(...interface{}) error }) (*model.Flight, error) {
	var f model.Flight
	err := row.Scan(
		&f.ID, &f.Number, &f.AirplaneID, &f.OriginID, &f.DestinationID,
		&f.DepartureUTC, &f.DurationMinutes, &f.EconomyPriceCents, &f.ExecutivePriceCents,
		&f.Status, &f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new flight and populates its generated ID and
// version.  A duplicate flight number maps to ErrFlightNumberExists.
// Availability must have been verified before calling.
func (r *FlightRepo) Create(ctx context.Context, f *model.Flight) error {
	const q = `INSERT INTO flights
	           (flight_number, airplane_id, origin_airport_id, destination_airport_id,
	            departure_utc, duration_minutes, economy_price_cents, executive_price_cents, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		f.Number, f.AirplaneID, f.OriginID, f.DestinationID,
		f.DepartureUTC, f.DurationMinutes, f.EconomyPriceCents, f.ExecutivePriceCents,
		model.FlightScheduled,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrFlightNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	f.Status = model.FlightScheduled
	f.Version = 1
	return nil
}

// GetByID retrieves a single flight.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	f, err := scanFlight(r.db.QueryRowContext(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

// GetByIDTx retrieves a flight inside a transaction so booking
// preconditions are evaluated against the row the transaction sees.
func (r *FlightRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	f, err := scanFlight(tx.QueryRowContext(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

// ListByAirplane returns all non-canceled flights of an airplane
// ordered by departure.  This is the schedule the availability checker
// evaluates candidates against.
func (r *FlightRepo) ListByAirplane(ctx context.Context, airplaneID uint64) ([]model.Flight, error) {
	const q = `SELECT ` + flightColumns + `
	           FROM flights
	           WHERE airplane_id = ? AND status <> 'CANCELED'
	           ORDER BY departure_utc`
	return r.queryFlights(ctx, q, airplaneID)
}

// SearchByRoute returns scheduled flights between two airports
// departing within the UTC day starting at dayStart.
func (r *FlightRepo) SearchByRoute(ctx context.Context, originID, destinationID uint64, dayStart time.Time) ([]model.Flight, error) {
	const q = `SELECT ` + flightColumns + `
	           FROM flights
	           WHERE origin_airport_id = ? AND destination_airport_id = ?
	             AND status = 'SCHEDULED'
	             AND departure_utc >= ? AND departure_utc < ?
	           ORDER BY departure_utc`
	dayStart = dayStart.UTC().Truncate(24 * time.Hour)
	return r.queryFlights(ctx, q, originID, destinationID, dayStart, dayStart.Add(24*time.Hour))
}

// ListSweepable returns non-terminal flights whose departure has
// passed; the sweeper decides which transition, if any, applies.
func (r *FlightRepo) ListSweepable(ctx context.Context, now time.Time) ([]model.Flight, error) {
	const q = `SELECT ` + flightColumns + `
	           FROM flights
	           WHERE status IN ('SCHEDULED','DEPARTED') AND departure_utc <= ?
	           ORDER BY departure_utc`
	return r.queryFlights(ctx, q, now.UTC())
}

func (r *FlightRepo) queryFlights(ctx context.Context, q string, args ...interface{}) ([]model.Flight, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateVersioned rewrites a flight's schedulable fields only when the
// caller's version matches, bumping the version on success.  Returns
// ErrStaleVersion when another edit committed first.
func (r *FlightRepo) UpdateVersioned(ctx context.Context, f *model.Flight) error {
	const q = `UPDATE flights
	           SET flight_number = ?, airplane_id = ?, origin_airport_id = ?, destination_airport_id = ?,
	               departure_utc = ?, duration_minutes = ?, economy_price_cents = ?, executive_price_cents = ?,
	               version = version + 1
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q,
		f.Number, f.AirplaneID, f.OriginID, f.DestinationID,
		f.DepartureUTC, f.DurationMinutes, f.EconomyPriceCents, f.ExecutivePriceCents,
		f.ID, f.Version,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrFlightNumberExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM flights WHERE id = ?)`, f.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrFlightNotFound
		}
		return ErrStaleVersion
	}
	f.Version++
	return nil
}

// Cancel marks a scheduled flight canceled.  Only SCHEDULED flights can
// be canceled; anything else yields ErrConflict so a departed flight is
// never retroactively canceled.
func (r *FlightRepo) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE flights SET status = 'CANCELED' WHERE id = ? AND status = 'SCHEDULED'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM flights WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrFlightNotFound
		}
		return ErrConflict
	}
	return nil
}

// MarkDeparted transitions SCHEDULED -> DEPARTED.  The status guard in
// the WHERE clause makes the sweep idempotent: the returned bool is
// true only for the run that actually performed the transition.
func (r *FlightRepo) MarkDeparted(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE flights SET status = 'DEPARTED' WHERE id = ? AND status = 'SCHEDULED'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkCompleted transitions any non-terminal status to COMPLETED once
// the arrival time has passed.  Canceled flights never change.
func (r *FlightRepo) MarkCompleted(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE flights SET status = 'COMPLETED' WHERE id = ? AND status NOT IN ('COMPLETED','CANCELED')`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
