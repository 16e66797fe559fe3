package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// ErrAirportNotFound is returned when an airport lookup yields no rows.
var ErrAirportNotFound = errors.New("airport not found")

// AirportRepo provides read/write access to the airports table.
type AirportRepo struct {
	db *sql.DB
}

// NewAirportRepo constructs an AirportRepo with the given DB handle.
func NewAirportRepo(db *sql.DB) *AirportRepo { return &AirportRepo{db: db} }

// Create inserts an airport.  IATA codes are stored upper-cased and
// must be unique.
func (r *AirportRepo) Create(ctx context.Context, a *model.Airport) error {
	const q = `INSERT INTO airports (iata_code, name, city, country) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, strings.ToUpper(a.IATA), a.Name, a.City, a.Country)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID retrieves a single airport.
func (r *AirportRepo) GetByID(ctx context.Context, id uint64) (*model.Airport, error) {
	const q = `SELECT id, iata_code, name, city, country FROM airports WHERE id = ?`
	var a model.Airport
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.IATA, &a.Name, &a.City, &a.Country)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAirportNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns all airports ordered by IATA code.
func (r *AirportRepo) List(ctx context.Context) ([]model.Airport, error) {
	const q = `SELECT id, iata_code, name, city, country FROM airports ORDER BY iata_code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Airport
	for rows.Next() {
		var a model.Airport
		if err := rows.Scan(&a.ID, &a.IATA, &a.Name, &a.City, &a.Country); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
