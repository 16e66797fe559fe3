package model

import "time"

// AirplaneStatus enumerates the operational states of an aircraft.
// Only active airplanes may be assigned to new flights.
type AirplaneStatus string

const (
	AirplaneActive      AirplaneStatus = "ACTIVE"
	AirplaneInactive    AirplaneStatus = "INACTIVE"
	AirplaneMaintenance AirplaneStatus = "MAINTENANCE"
)

// Airplane represents an aircraft in the fleet.  The executive and
// economy seat counts drive seat-map generation; editing them replaces
// the airplane's entire seat set in a single transaction.
//
// Fields:
//  ID             – primary key identifier.
//  Model          – manufacturer/model designation (e.g. "Airbus A320").
//  ExecutiveSeats – number of executive-class seats.
//  EconomySeats   – number of economy-class seats.
//  Status         – operational status (ACTIVE, INACTIVE, MAINTENANCE).
//  Version        – optimistic-concurrency token; incremented on every edit.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Airplane struct {
	ID             uint64         `json:"id"`              // airplanes.id
	Model          string         `json:"model"`           // airplanes.model
	ExecutiveSeats int            `json:"executive_seats"` // airplanes.executive_seats
	EconomySeats   int            `json:"economy_seats"`   // airplanes.economy_seats
	Status         AirplaneStatus `json:"status"`          // airplanes.status
	Version        uint32         `json:"version"`         // airplanes.version
	CreatedAt      time.Time      `json:"created_at"`      // airplanes.created_at
	UpdatedAt      time.Time      `json:"updated_at"`      // airplanes.updated_at
}
