package sweeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

func TestNextStatus(t *testing.T) {
	departure := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	duration := 120 // arrival 11:00

	tests := []struct {
		name    string
		status  model.FlightStatus
		now     time.Time
		want    model.FlightStatus
		wantDue bool
	}{
		{"scheduled before departure", model.FlightScheduled, departure.Add(-time.Minute), model.FlightScheduled, false},
		{"scheduled exactly at departure", model.FlightScheduled, departure, model.FlightDeparted, true},
		{"scheduled past departure", model.FlightScheduled, departure.Add(time.Hour), model.FlightDeparted, true},
		{"departed mid-flight", model.FlightDeparted, departure.Add(time.Hour), model.FlightDeparted, false},
		{"departed exactly at arrival", model.FlightDeparted, departure.Add(2 * time.Hour), model.FlightCompleted, true},
		{"departed long past arrival", model.FlightDeparted, departure.Add(26 * time.Hour), model.FlightCompleted, true},
		{"completed never moves", model.FlightCompleted, departure.Add(48 * time.Hour), model.FlightCompleted, false},
		{"canceled never moves", model.FlightCanceled, departure.Add(48 * time.Hour), model.FlightCanceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &model.Flight{Status: tt.status, DepartureUTC: departure, DurationMinutes: duration}
			got, due := NextStatus(f, tt.now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDue, due)
		})
	}
}

// A flight whose whole window already passed still departs first; the
// next sweep completes it.  Transitions never skip a state, so holders
// get both notifications.
func TestNextStatusStepsOneStateAtATime(t *testing.T) {
	departure := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	f := &model.Flight{Status: model.FlightScheduled, DepartureUTC: departure, DurationMinutes: 60}
	now := departure.Add(3 * time.Hour)

	got, due := NextStatus(f, now)
	assert.True(t, due)
	assert.Equal(t, model.FlightDeparted, got)

	f.Status = got
	got, due = NextStatus(f, now)
	assert.True(t, due)
	assert.Equal(t, model.FlightCompleted, got)
}
