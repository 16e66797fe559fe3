package model

import "time"

// FlightStatus enumerates the lifecycle states of a flight.  COMPLETED
// and CANCELED are terminal.
type FlightStatus string

const (
	FlightScheduled FlightStatus = "SCHEDULED"
	FlightDeparted  FlightStatus = "DEPARTED"
	FlightCompleted FlightStatus = "COMPLETED"
	FlightCanceled  FlightStatus = "CANCELED"
)

// Flight represents a scheduled journey of one airplane between two
// airports.  Arrival time is derived from departure plus duration and is
// never stored.  Prices are kept in euro cents; the executive price must
// be greater than or equal to the economy price.
//
// Fields:
//  ID                  – primary key identifier.
//  Number              – unique flight number (e.g. "VA1234").
//  AirplaneID          – aircraft assigned to this flight.
//  OriginID            – departure airport.
//  DestinationID       – arrival airport.
//  DepartureUTC        – departure instant, always UTC.
//  DurationMinutes     – scheduled flight time in minutes.
//  EconomyPriceCents   – price of an economy seat.
//  ExecutivePriceCents – price of an executive seat.
//  Status              – lifecycle status (see FlightStatus).
//  Version             – optimistic-concurrency token for staff edits.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Flight struct {
	ID                  uint64       `json:"id"`                    // flights.id
	Number              string       `json:"number"`                // flights.flight_number
	AirplaneID          uint64       `json:"airplane_id"`           // flights.airplane_id
	OriginID            uint64       `json:"origin_id"`             // flights.origin_airport_id
	DestinationID       uint64       `json:"destination_id"`        // flights.destination_airport_id
	DepartureUTC        time.Time    `json:"departure_utc"`         // flights.departure_utc
	DurationMinutes     int          `json:"duration_minutes"`      // flights.duration_minutes
	EconomyPriceCents   uint32       `json:"economy_price_cents"`   // flights.economy_price_cents
	ExecutivePriceCents uint32       `json:"executive_price_cents"` // flights.executive_price_cents
	Status              FlightStatus `json:"status"`                // flights.status
	Version             uint32       `json:"version"`               // flights.version
	CreatedAt           time.Time    `json:"created_at"`            // flights.created_at
	UpdatedAt           time.Time    `json:"updated_at"`            // flights.updated_at
}

// ArrivalUTC returns the derived arrival instant.
func (f Flight) ArrivalUTC() time.Time {
	return f.DepartureUTC.Add(time.Duration(f.DurationMinutes) * time.Minute)
}

// Terminal reports whether the flight can no longer change state.
func (f Flight) Terminal() bool {
	return f.Status == FlightCompleted || f.Status == FlightCanceled
}
