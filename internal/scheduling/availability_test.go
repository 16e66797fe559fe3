package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

var base = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

// flight builds a 2-hour flight departing at base+offset.
func flight(id uint64, offset time.Duration, origin, destination uint64, status model.FlightStatus) model.Flight {
	return model.Flight{
		ID:              id,
		AirplaneID:      1,
		OriginID:        origin,
		DestinationID:   destination,
		DepartureUTC:    base.Add(offset),
		DurationMinutes: 120,
		Status:          status,
	}
}

func TestIsAvailableScheduleConflicts(t *testing.T) {
	ck := NewChecker(0, 0) // defaults: 90m buffer, 6h reposition gap

	// Existing: departs 08:00, lands 10:00, grounded until 11:30.
	existing := []model.Flight{flight(1, 0, 10, 20, model.FlightScheduled)}

	tests := []struct {
		name      string
		departure time.Time
		origin    uint64
		want      bool
	}{
		{"inside flight window", base.Add(time.Hour), 10, false},
		{"departs during ground buffer", base.Add(3 * time.Hour), 20, false},
		{"departs exactly when buffer ends", base.Add(3*time.Hour + 30*time.Minute), 20, true},
		{"finishes before existing departs", base.Add(-3 * time.Hour), 10, true},
		{"lands exactly at existing departure", base.Add(-2 * time.Hour), 10, true},
		{"overlaps existing departure", base.Add(-90 * time.Minute), 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ck.IsAvailable(existing, Candidate{
				Departure:       tt.departure,
				Duration:        2 * time.Hour,
				OriginAirportID: tt.origin,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAvailablePositionalContinuity(t *testing.T) {
	ck := NewChecker(0, 0)

	// Airplane lands at airport 20 at 10:00.
	existing := []model.Flight{flight(1, 0, 10, 20, model.FlightScheduled)}

	// Candidate departs from airport 30 at 14:00 with zero schedule
	// overlap: still rejected, the airplane is at airport 20.
	cand := Candidate{
		Departure:       base.Add(6 * time.Hour),
		Duration:        time.Hour,
		OriginAirportID: 30,
	}
	assert.False(t, ck.IsAvailable(existing, cand))

	// Same slot from where the airplane actually is.
	cand.OriginAirportID = 20
	assert.True(t, ck.IsAvailable(existing, cand))
}

func TestIsAvailableChronologicallyFirstCandidate(t *testing.T) {
	ck := NewChecker(0, 0)

	t.Run("tight gap to next flight pins the origin", func(t *testing.T) {
		// Next flight departs from airport 10 at 08:00.  A candidate
		// landing 4h earlier must also start at airport 10.
		existing := []model.Flight{flight(1, 0, 10, 20, model.FlightScheduled)}
		cand := Candidate{
			Departure:       base.Add(-5 * time.Hour),
			Duration:        time.Hour,
			OriginAirportID: 30,
		}
		assert.False(t, ck.IsAvailable(existing, cand))
		cand.OriginAirportID = 10
		assert.True(t, ck.IsAvailable(existing, cand))
	})

	t.Run("wide gap allows repositioning", func(t *testing.T) {
		existing := []model.Flight{flight(1, 0, 10, 20, model.FlightScheduled)}
		cand := Candidate{
			Departure:       base.Add(-8 * time.Hour),
			Duration:        time.Hour,
			OriginAirportID: 30,
		}
		assert.True(t, ck.IsAvailable(existing, cand))
	})
}

func TestIsAvailableIgnoresCanceledAndExcluded(t *testing.T) {
	ck := NewChecker(0, 0)

	existing := []model.Flight{
		flight(1, 0, 10, 20, model.FlightCanceled),            // canceled: invisible
		flight(2, 30*time.Minute, 10, 20, model.FlightScheduled), // the flight being edited
	}
	cand := Candidate{
		Departure:       base.Add(30 * time.Minute),
		Duration:        2 * time.Hour,
		OriginAirportID: 10,
		ExcludeFlightID: 2,
	}
	assert.True(t, ck.IsAvailable(existing, cand))

	// Without the exclusion the same slot collides with flight 2.
	cand.ExcludeFlightID = 0
	assert.False(t, ck.IsAvailable(existing, cand))
}

func TestIsAvailableEmptySchedule(t *testing.T) {
	ck := NewChecker(0, 0)
	cand := Candidate{Departure: base, Duration: time.Hour, OriginAirportID: 42}
	assert.True(t, ck.IsAvailable(nil, cand))
}
