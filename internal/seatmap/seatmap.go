// Package seatmap generates the deterministic seat layout of an
// airplane from its executive and economy seat counts.  The layout is
// pure arithmetic: no database access, no randomness.
package seatmap

import (
	"errors"

	"github.com/brunacrodrigues/vitoria-airlines/internal/model"
)

// SeatsPerRow is the cabin width; seat letters run A through F.
const SeatsPerRow = 6

// letters indexes column position to seat letter.
var letters = [SeatsPerRow]string{"A", "B", "C", "D", "E", "F"}

// ErrNegativeCount is returned when either seat count is below zero.
var ErrNegativeCount = errors.New("seat counts must not be negative")

// Generate lays out seats for an airplane in row-major order.  Executive
// seats occupy the lowest row numbers; economy seats start on a fresh
// row even when the executive count does not fill its last row, so the
// two classes never share a row.  Given identical inputs the output is
// identical, including ordering.
func Generate(airplaneID uint64, executiveCount, economyCount int) ([]model.Seat, error) {
	if executiveCount < 0 || economyCount < 0 {
		return nil, ErrNegativeCount
	}

	seats := make([]model.Seat, 0, executiveCount+economyCount)
	fill := func(class model.SeatClass, count, startRow int) int {
		row := startRow
		for i := 0; i < count; i++ {
			seats = append(seats, model.Seat{
				AirplaneID: airplaneID,
				Row:        row,
				Letter:     letters[i%SeatsPerRow],
				Class:      class,
			})
			if i%SeatsPerRow == SeatsPerRow-1 {
				row++
			}
		}
		if count%SeatsPerRow != 0 {
			row++ // partial row is not shared with the next class
		}
		return row
	}

	next := fill(model.SeatExecutive, executiveCount, 1)
	fill(model.SeatEconomy, economyCount, next)
	return seats, nil
}
