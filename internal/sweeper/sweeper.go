// Package sweeper advances flight statuses on a timer.  Flights move
// Scheduled -> Departed at their departure time and Departed ->
// Completed once the flight duration has elapsed, without anyone
// touching the API.  Transitions are applied with guarded UPDATEs so a
// concurrent staff cancelation always wins.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
	"github.com/brunacrodrigues/vitoria-airlines/internal/queue"
	"github.com/brunacrodrigues/vitoria-airlines/internal/repository"
	"github.com/brunacrodrigues/vitoria-airlines/internal/service"
)

// NextStatus decides the transition due for a flight at the given
// instant.  It returns the target status and whether a transition is
// due at all.  A Scheduled flight past its departure departs; a
// Departed flight past its arrival completes.  Terminal states never
// move.
func NextStatus(f *model.Flight, now time.Time) (model.FlightStatus, bool) {
	switch f.Status {
	case model.FlightScheduled:
		if !now.Before(f.DepartureUTC) {
			return model.FlightDeparted, true
		}
	case model.FlightDeparted:
		if !now.Before(f.ArrivalUTC()) {
			return model.FlightCompleted, true
		}
	}
	return f.Status, false
}

// Sweeper periodically applies due transitions and notifies ticket
// holders and admins about each one.
type Sweeper struct {
	flights  *repository.FlightRepo
	tickets  *repository.TicketRepo
	users    *repository.UserRepo
	notifier *service.Notifier
	interval time.Duration
	now      func() time.Time
}

// New constructs a Sweeper ticking at the given interval.  A zero or
// negative interval falls back to one minute.
func New(flights *repository.FlightRepo, tickets *repository.TicketRepo, users *repository.UserRepo, notifier *service.Notifier, interval time.Duration) *Sweeper {
	if flights == nil || tickets == nil || users == nil || notifier == nil {
		panic("nil dependency passed to sweeper.New")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		flights: flights, tickets: tickets, users: users,
		notifier: notifier, interval: interval,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps until the context is canceled.  One failed sweep is logged
// and retried on the next tick; the loop never exits on error.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx) // run once at startup so restarts catch up immediately
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := s.now()
	flights, err := s.flights.ListSweepable(ctx, now)
	if err != nil {
		log.Printf("sweeper: list flights: %v", err)
		return
	}
	for i := range flights {
		f := &flights[i]
		// Apply transitions one state at a time until the flight is
		// current, so a flight whose whole window passed between sweeps
		// still departs and completes (with both notifications) in one
		// run.
		for {
			next, due := NextStatus(f, now)
			if !due {
				break
			}
			if err := s.apply(ctx, f, next, now); err != nil {
				log.Printf("sweeper: flight %d -> %s: %v", f.ID, next, err)
				break
			}
			f.Status = next
		}
	}
}

// apply performs one transition.  The guarded repository UPDATE returns
// false when another writer got there first (staff cancelation, an
// earlier sweep); in that case no event is emitted.
func (s *Sweeper) apply(ctx context.Context, f *model.Flight, next model.FlightStatus, now time.Time) error {
	var (
		applied bool
		err     error
	)
	switch next {
	case model.FlightDeparted:
		applied, err = s.flights.MarkDeparted(ctx, f.ID)
	case model.FlightCompleted:
		applied, err = s.flights.MarkCompleted(ctx, f.ID)
	default:
		return nil
	}
	if err != nil || !applied {
		return err
	}

	recipients, err := s.tickets.HolderEmails(ctx, f.ID)
	if err != nil {
		log.Printf("sweeper: holder emails for flight %d: %v", f.ID, err)
	}
	admins, err := s.users.EmailsByRole(ctx, model.RoleAdmin)
	if err != nil {
		log.Printf("sweeper: admin emails: %v", err)
	}
	s.notifier.FlightStatus(queue.FlightStatusEvent{
		FlightID:     f.ID,
		FlightNumber: f.Number,
		OldStatus:    string(f.Status),
		NewStatus:    string(next),
		Recipients:   append(recipients, admins...),
		ChangedAt:    now.Format(time.RFC3339),
	})
	return nil
}
