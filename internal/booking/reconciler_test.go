package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunacrodrigues/vitoria-airlines/internal/payment"
	"github.com/brunacrodrigues/vitoria-airlines/internal/payment/paymenttest"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
)

// newTestReconciler wires a Reconciler over a sqlmock handle and the
// in-memory payment provider.  The notifier is never started, so events
// just buffer.
func newTestReconciler(t *testing.T) (*Reconciler, *paymenttest.FakeProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := service.NewNotifier(16)
	alloc := NewAllocator(db,
		repository.NewFlightRepo(db), repository.NewSeatRepo(db),
		repository.NewTicketRepo(db), repository.NewUserRepo(db),
		notifier, 4)
	provider := paymenttest.New()
	return NewReconciler(alloc, provider, repository.NewUserRepo(db), notifier, "http://localhost:8080"), provider, mock
}

var testDeparture = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func scheduledFlightRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "flight_number", "airplane_id", "origin_airport_id", "destination_airport_id",
		"departure_utc", "duration_minutes", "economy_price_cents", "executive_price_cents",
		"status", "version", "created_at", "updated_at",
	}).AddRow(3, "VA1234", 2, 1, 4, testDeparture, 120, 10000, 20000, "SCHEDULED", 1, testDeparture, testDeparture)
}

func emptyTicketRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "flight_id", "seat_id", "user_id", "price_cents",
		"purchased_at", "is_canceled", "canceled_at", "payment_session_id",
	})
}

func TestCompleteBookingRejectsUnpaidSession(t *testing.T) {
	rec, provider, mock := newTestReconciler(t)
	provider.Seed(payment.Session{ID: "s-unpaid", Paid: false})

	_, err := rec.CompleteBooking(context.Background(), "s-unpaid")
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)
	// Fail closed: no money confirmed, no store access at all.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Refreshing the success page must return the tickets the session
// already produced instead of selling the seats twice.
func TestCompleteBookingIsIdempotent(t *testing.T) {
	rec, provider, mock := newTestReconciler(t)
	meta, err := payment.Metadata{Legs: []payment.Leg{{FlightID: 3, SeatID: 7}, {FlightID: 5, SeatID: 9}}, UserID: 1}.Encode()
	require.NoError(t, err)
	provider.Seed(payment.Session{ID: "s-done", Paid: true, Metadata: meta})

	mock.ExpectQuery("WHERE payment_session_id").WillReturnRows(
		emptyTicketRows().
			AddRow(21, 3, 7, 1, 20000, testDeparture, false, nil, "s-done").
			AddRow(22, 5, 9, 1, 20000, testDeparture, false, nil, "s-done"))

	res, err := rec.CompleteBooking(context.Background(), "s-done")
	require.NoError(t, err)
	assert.EqualValues(t, 21, res.OutboundTicketID)
	assert.EqualValues(t, 22, res.ReturnTicketID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A seat sold between session creation and payment confirmation is an
// operational incident: the completion must fail loudly, not silently
// drop the leg.
func TestCompleteBookingSeatTakenAfterPayment(t *testing.T) {
	rec, provider, mock := newTestReconciler(t)
	meta, err := payment.Metadata{Legs: []payment.Leg{{FlightID: 3, SeatID: 7}}, UserID: 1}.Encode()
	require.NoError(t, err)
	provider.Seed(payment.Session{ID: "s-lost", Paid: true, Metadata: meta})

	mock.ExpectQuery("WHERE payment_session_id").WillReturnRows(emptyTicketRows())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(
		sqlmock.NewRows([]string{"id", "full_name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "Ana Sousa", "ana@example.com", "x", "CUSTOMER", true, testDeparture, testDeparture))
	mock.ExpectQuery("FROM flights WHERE id").WillReturnRows(scheduledFlightRow())
	mock.ExpectQuery("FROM seats WHERE id").WillReturnRows(
		sqlmock.NewRows([]string{"id", "airplane_id", "row_num", "letter", "class"}).
			AddRow(7, 2, 1, "A", "EXECUTIVE"))
	mock.ExpectQuery("FROM seat_locks WHERE flight_id").WillReturnRows(
		sqlmock.NewRows([]string{"e"}).AddRow(true))
	// No concurrent completion of this session won the seat.
	mock.ExpectQuery("WHERE payment_session_id").WillReturnRows(emptyTicketRows())
	mock.ExpectRollback()

	_, err = rec.CompleteBooking(context.Background(), "s-lost")
	assert.ErrorIs(t, err, ErrSeatTakenAfterPayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The full anonymous flow: account created, ticket sold, set-password
// token hash stored before the link is mailed.
func TestCompleteBookingCreatesAccountForAnonymousBuyer(t *testing.T) {
	rec, provider, mock := newTestReconciler(t)
	meta, err := payment.Metadata{
		Legs:     []payment.Leg{{FlightID: 3, SeatID: 7}},
		FullName: "Ana Sousa", Email: "ana@example.com", Passport: "P1234567",
	}.Encode()
	require.NoError(t, err)
	provider.Seed(payment.Session{ID: "s-anon", Paid: true, Metadata: meta})

	mock.ExpectQuery("WHERE payment_session_id").WillReturnRows(emptyTicketRows())
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE email").WillReturnRows(
		sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO customer_profiles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM flights WHERE id").WillReturnRows(scheduledFlightRow())
	mock.ExpectQuery("FROM seats WHERE id").WillReturnRows(
		sqlmock.NewRows([]string{"id", "airplane_id", "row_num", "letter", "class"}).
			AddRow(7, 2, 1, "A", "EXECUTIVE"))
	mock.ExpectQuery("FROM seat_locks WHERE flight_id").WillReturnRows(
		sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec("INSERT INTO seat_locks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("UPDATE users SET reset_token_hash").WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := rec.CompleteBooking(context.Background(), "s-anon")
	require.NoError(t, err)
	assert.EqualValues(t, 21, res.OutboundTicketID)
	assert.Zero(t, res.ReturnTicketID)
	assert.EqualValues(t, 7, res.CreatedUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A seat with an active ticket must be rejected before any session is
// opened: money may never move for a seat that was already gone.
func TestCreateCheckoutRejectsOccupiedSeat(t *testing.T) {
	rec, provider, mock := newTestReconciler(t)

	mock.ExpectQuery("FROM flights WHERE id").WillReturnRows(scheduledFlightRow())
	mock.ExpectQuery("ORDER BY row_num, letter").WillReturnRows(
		sqlmock.NewRows([]string{"id", "airplane_id", "row_num", "letter", "class"}).
			AddRow(7, 2, 1, "A", "EXECUTIVE"))
	mock.ExpectQuery("FROM seat_locks WHERE flight_id").WillReturnRows(
		sqlmock.NewRows([]string{"e"}).AddRow(true))

	_, _, err := rec.CreateCheckout(context.Background(),
		payment.Metadata{Legs: []payment.Leg{{FlightID: 3, SeatID: 7}}, UserID: 1})
	assert.ErrorIs(t, err, repository.ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, missing := provider.GetSession(context.Background(), "any")
	assert.Error(t, missing, "no session may exist after the rejection")
}
