package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
)

func TestPriceFor(t *testing.T) {
	f := &model.Flight{EconomyPriceCents: 10000, ExecutivePriceCents: 20000}
	assert.EqualValues(t, 20000, PriceFor(f, model.SeatExecutive))
	assert.EqualValues(t, 10000, PriceFor(f, model.SeatEconomy))
}

func TestCancelableAt(t *testing.T) {
	departure := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cutoff := 24 * time.Hour

	tests := []struct {
		name   string
		status model.FlightStatus
		now    time.Time
		want   bool
	}{
		{"well before cutoff", model.FlightScheduled, departure.Add(-48 * time.Hour), true},
		{"one second before cutoff", model.FlightScheduled, departure.Add(-cutoff).Add(-time.Second), true},
		{"exactly at cutoff", model.FlightScheduled, departure.Add(-cutoff), false},
		{"inside cutoff window", model.FlightScheduled, departure.Add(-time.Hour), false},
		{"flight already departed", model.FlightDeparted, departure.Add(-48 * time.Hour), false},
		{"flight canceled", model.FlightCanceled, departure.Add(-48 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &model.Flight{Status: tt.status, DepartureUTC: departure}
			assert.Equal(t, tt.want, CancelableAt(f, tt.now, cutoff))
		})
	}
}

// Two buyers can pass the fast existence check for the same seat; the
// seat_locks insert decides the race.  The loser must see ErrSeatTaken
// and its transaction must roll back, ticket row included.
func TestBookLostSeatRaceRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	alloc := NewAllocator(db,
		repository.NewFlightRepo(db), repository.NewSeatRepo(db),
		repository.NewTicketRepo(db), repository.NewUserRepo(db),
		service.NewNotifier(1), 4)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(
		sqlmock.NewRows([]string{"id", "full_name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "Ana Sousa", "ana@example.com", "x", "CUSTOMER", true, testDeparture, testDeparture))
	mock.ExpectQuery("FROM customer_profiles WHERE user_id").WillReturnRows(
		sqlmock.NewRows([]string{"user_id", "passport_number", "phone"}).
			AddRow(1, "P1234567", ""))
	mock.ExpectQuery("FROM flights WHERE id").WillReturnRows(scheduledFlightRow())
	mock.ExpectQuery("FROM seats WHERE id").WillReturnRows(
		sqlmock.NewRows([]string{"id", "airplane_id", "row_num", "letter", "class"}).
			AddRow(7, 2, 1, "A", "EXECUTIVE"))
	// Seat still free at check time; the other buyer commits in between.
	mock.ExpectQuery("FROM seat_locks WHERE flight_id").WillReturnRows(
		sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec("INSERT INTO seat_locks").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-7' for key 'seat_locks.PRIMARY'"))
	mock.ExpectRollback()

	_, err = alloc.Book(context.Background(), 3, 7, Buyer{UserID: 1})
	assert.ErrorIs(t, err, repository.ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
