package model

import "fmt"

// SeatClass distinguishes executive from economy seating.  The class
// decides which of the flight's two prices applies to a booking.
type SeatClass string

const (
	SeatEconomy   SeatClass = "ECONOMY"
	SeatExecutive SeatClass = "EXECUTIVE"
)

// Seat is one physical seat of an airplane.  Seats are generated from
// the airplane's seat counts and are unique per (airplane, row, letter).
// They are immutable except when an airplane edit regenerates the whole
// set transactionally.
type Seat struct {
	ID         uint64    `json:"id"`          // seats.id
	AirplaneID uint64    `json:"airplane_id"` // seats.airplane_id
	Row        int       `json:"row"`         // seats.row_num (1-based)
	Letter     string    `json:"letter"`      // seats.letter (A–F)
	Class      SeatClass `json:"class"`       // seats.class
}

// Label returns the human-readable coordinate, e.g. "12C".
func (s Seat) Label() string {
	return fmt.Sprintf("%d%s", s.Row, s.Letter)
}
