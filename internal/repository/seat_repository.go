package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides access to the seats table.  Seats are generated
// from an airplane's seat counts and only ever change as a full
// replacement during an airplane edit.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// CreateBulkTx inserts multiple seats in a single statement within the
// provided transaction.  Passing an empty slice has no effect.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (airplane_id, row_num, letter, class) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.AirplaneID, s.Row, s.Letter, s.Class)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ReplaceForAirplaneTx deletes every seat of the airplane and inserts
// the freshly generated set.  Callers must have verified beforehand
// that no active ticket still references the old seats; the whole
// operation runs inside the caller's transaction.
func (r *SeatRepo) ReplaceForAirplaneTx(ctx context.Context, tx *sql.Tx, airplaneID uint64, seats []model.Seat) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE airplane_id = ?`, airplaneID); err != nil {
		return err
	}
	return r.CreateBulkTx(ctx, tx, seats)
}

// GetByIDTx retrieves a seat inside a transaction.  Booking uses this
// so the seat it validates is the seat it locks.
func (r *SeatRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
	const q = `SELECT id, airplane_id, row_num, letter, class FROM seats WHERE id = ?`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.AirplaneID, &s.Row, &s.Letter, &s.Class)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByAirplane retrieves all seats of an airplane ordered by row then
// letter, the order in which a seat map is rendered.
func (r *SeatRepo) ListByAirplane(ctx context.Context, airplaneID uint64) ([]model.Seat, error) {
	const q = `SELECT id, airplane_id, row_num, letter, class
	           FROM seats
	           WHERE airplane_id = ?
	           ORDER BY row_num, letter`
	rows, err := r.db.QueryContext(ctx, q, airplaneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.AirplaneID, &s.Row, &s.Letter, &s.Class); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
