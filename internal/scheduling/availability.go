// Package scheduling decides whether an airplane can physically fly a
// candidate flight: its existing schedule must leave room (including
// turnaround time on the ground) and the airplane must be at the right
// airport when the candidate departs.
package scheduling

import (
	"sort"
	"time"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// Default policy constants.  The ground buffer is the minimum time an
// airplane stays grounded after landing before its next takeoff; the
// reposition gap is how much idle time makes the airplane's position
// irrelevant because it can be ferried to any airport.
const (
	DefaultGroundBuffer  = 90 * time.Minute
	DefaultRepositionGap = 6 * time.Hour
)

// Candidate describes a new or edited flight being validated.  When an
// existing flight is edited, ExcludeFlightID carries its ID so the
// flight is not compared against itself.
type Candidate struct {
	Departure       time.Time
	Duration        time.Duration
	OriginAirportID uint64
	ExcludeFlightID uint64
}

// Arrival returns the candidate's derived arrival instant.
func (c Candidate) Arrival() time.Time { return c.Departure.Add(c.Duration) }

// Checker evaluates candidates against an airplane's existing schedule.
// The zero value is not usable; construct with NewChecker.
type Checker struct {
	groundBuffer  time.Duration
	repositionGap time.Duration
}

// NewChecker returns a Checker with the given policy durations.  Zero
// or negative values fall back to the defaults.
func NewChecker(groundBuffer, repositionGap time.Duration) *Checker {
	if groundBuffer <= 0 {
		groundBuffer = DefaultGroundBuffer
	}
	if repositionGap <= 0 {
		repositionGap = DefaultRepositionGap
	}
	return &Checker{groundBuffer: groundBuffer, repositionGap: repositionGap}
}

// IsAvailable reports whether the airplane can fly the candidate.
// existing must hold the airplane's flights; canceled flights and the
// excluded flight are ignored.  A false result is a validation outcome
// for the caller to surface, never a fault.
func (ck *Checker) IsAvailable(existing []model.Flight, cand Candidate) bool {
	flights := relevant(existing, cand.ExcludeFlightID)
	return ck.noScheduleConflict(flights, cand) && ck.positionMatches(flights, cand)
}

// noScheduleConflict runs the interval-overlap test against every
// existing flight.  The occupied interval of an existing flight extends
// past its arrival by the ground buffer: turnaround time is needed after
// landing, not before a later takeoff, which is why the buffer applies
// on one side only.
func (ck *Checker) noScheduleConflict(flights []model.Flight, cand Candidate) bool {
	for _, f := range flights {
		availableAt := f.ArrivalUTC().Add(ck.groundBuffer)
		if cand.Departure.Before(availableAt) && cand.Arrival().After(f.DepartureUTC) {
			return false
		}
	}
	return true
}

// positionMatches verifies positional continuity: the airplane must be
// at the candidate's origin at departure time.
//
// The latest flight arriving at or before the candidate departure fixes
// the airplane's position: its destination must equal the candidate
// origin.  With no prior flight, the next flight after the candidate
// decides instead: if it departs at least the reposition gap later the
// position is irrelevant, otherwise its origin must match the
// candidate's.  With no flights either side the airplane is free to be
// positioned anywhere.
func (ck *Checker) positionMatches(flights []model.Flight, cand Candidate) bool {
	var prior, next *model.Flight
	for i := range flights {
		f := &flights[i]
		if !f.ArrivalUTC().After(cand.Departure) {
			if prior == nil || f.ArrivalUTC().After(prior.ArrivalUTC()) {
				prior = f
			}
		} else if f.DepartureUTC.After(cand.Departure) {
			if next == nil || f.DepartureUTC.Before(next.DepartureUTC) {
				next = f
			}
		}
	}

	if prior != nil {
		return prior.DestinationID == cand.OriginAirportID
	}
	if next != nil {
		if next.DepartureUTC.Sub(cand.Departure) >= ck.repositionGap {
			return true
		}
		return next.OriginID == cand.OriginAirportID
	}
	return true
}

// relevant filters out canceled flights and the excluded flight, and
// returns the remainder ordered by departure.  Ordering is not required
// for correctness but makes failures reproducible in logs and tests.
func relevant(existing []model.Flight, excludeID uint64) []model.Flight {
	out := make([]model.Flight, 0, len(existing))
	for _, f := range existing {
		if f.Status == model.FlightCanceled {
			continue
		}
		if excludeID != 0 && f.ID == excludeID {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureUTC.Before(out[j].DepartureUTC) })
	return out
}
