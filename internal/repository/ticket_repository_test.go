package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// The seat_locks primary key is what decides concurrent bookings of the
// same seat: the loser's insert collides and must surface as
// ErrSeatTaken, never as a raw driver error.
func TestCreateTxLostRaceMapsToErrSeatTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO seat_locks").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-7' for key 'seat_locks.PRIMARY'"))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewTicketRepo(db)
	ticket := &model.Ticket{FlightID: 3, SeatID: 7, UserID: 1, PriceCents: 10000}
	err = repo.CreateTx(ctx, tx, ticket)
	assert.ErrorIs(t, err, ErrSeatTaken)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxInsertsTicketAndLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO seat_locks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewTicketRepo(db)
	ticket := &model.Ticket{FlightID: 3, SeatID: 7, UserID: 1, PriceCents: 10000}
	require.NoError(t, repo.CreateTx(ctx, tx, ticket))
	assert.EqualValues(t, 11, ticket.ID)
	assert.False(t, ticket.PurchasedAt.IsZero())
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Canceling must flip the ticket and delete the lock row in the same
// transaction: the lock's absence is what makes the seat bookable
// again.
func TestCancelTxFreesSeatLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets SET is_canceled").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM seat_locks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewTicketRepo(db)
	require.NoError(t, repo.CancelTx(ctx, tx, 11))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTxAlreadyCanceled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	// Guarded UPDATE matches no row: the ticket was canceled before.
	mock.ExpectExec("UPDATE tickets SET is_canceled").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewTicketRepo(db)
	err = repo.CancelTx(ctx, tx, 11)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
