package booking

import "errors"

// ErrFlightNotBookable is returned when the target flight does not
// exist in a bookable state: it departed, finished or was canceled.
var ErrFlightNotBookable = errors.New("flight is not open for booking")

// ErrSeatWrongAirplane is returned when the requested seat does not
// belong to the airplane flying the flight.
var ErrSeatWrongAirplane = errors.New("seat does not belong to this flight")

// ErrMissingBuyerFields is returned when an anonymous booking omits
// required personal data, or an authenticated buyer has no passport on
// file and submitted none.
var ErrMissingBuyerFields = errors.New("missing buyer fields")

// ErrPassportMismatch is returned when an authenticated buyer submits a
// passport number different from the one recorded on their profile.
var ErrPassportMismatch = errors.New("passport differs from profile")

// ErrPaymentNotCompleted is returned when completion is attempted for a
// session the provider does not report as paid.  Fail closed: no
// tickets without confirmed money.
var ErrPaymentNotCompleted = errors.New("payment not completed")

// ErrSeatTakenAfterPayment is returned when a seat was sold between
// checkout-session creation and payment confirmation.  Money has
// already moved, so this is an operational incident requiring a manual
// refund, not a user-retryable conflict.
var ErrSeatTakenAfterPayment = errors.New("seat taken after payment captured; refund required")
