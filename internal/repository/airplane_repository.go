package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// ErrAirplaneNotFound is returned when an airplane lookup yields no rows.
var ErrAirplaneNotFound = errors.New("airplane not found")

// AirplaneRepo provides access to the airplanes table.  Edits go
// through UpdateVersionedTx so concurrent staff changes cannot silently
// overwrite each other.
type AirplaneRepo struct {
	db *sql.DB
}

// NewAirplaneRepo constructs an AirplaneRepo with the given DB handle.
func NewAirplaneRepo(db *sql.DB) *AirplaneRepo { return &AirplaneRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning airplane and seat writes.
func (r *AirplaneRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new airplane within an existing transaction and
// populates its generated ID and version.  Seat generation happens in
// the same transaction, driven by the caller.
func (r *AirplaneRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Airplane) error {
	const q = `INSERT INTO airplanes (model, executive_seats, economy_seats, status)
	           VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, a.Model, a.ExecutiveSeats, a.EconomySeats, a.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.Version = 1
	return nil
}

// GetByID retrieves a single airplane.
func (r *AirplaneRepo) GetByID(ctx context.Context, id uint64) (*model.Airplane, error) {
	const q = `SELECT id, model, executive_seats, economy_seats, status, version, created_at, updated_at
	           FROM airplanes WHERE id = ?`
	var a model.Airplane
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Model, &a.ExecutiveSeats, &a.EconomySeats, &a.Status, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAirplaneNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns the whole fleet ordered by model then id.
func (r *AirplaneRepo) List(ctx context.Context) ([]model.Airplane, error) {
	const q = `SELECT id, model, executive_seats, economy_seats, status, version, created_at, updated_at
	           FROM airplanes ORDER BY model, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Airplane
	for rows.Next() {
		var a model.Airplane
		if err := rows.Scan(
			&a.ID, &a.Model, &a.ExecutiveSeats, &a.EconomySeats, &a.Status, &a.Version,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateVersionedTx updates an airplane only when the caller's version
// matches the stored one, bumping the version on success.  It returns
// ErrStaleVersion when another writer committed first and
// ErrAirplaneNotFound when the row does not exist at all.
func (r *AirplaneRepo) UpdateVersionedTx(ctx context.Context, tx *sql.Tx, a *model.Airplane) error {
	const q = `UPDATE airplanes
	           SET model = ?, executive_seats = ?, economy_seats = ?, status = ?, version = version + 1
	           WHERE id = ? AND version = ?`
	res, err := tx.ExecContext(ctx, q, a.Model, a.ExecutiveSeats, a.EconomySeats, a.Status, a.ID, a.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM airplanes WHERE id = ?)`, a.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrAirplaneNotFound
		}
		return ErrStaleVersion
	}
	a.Version++
	return nil
}
