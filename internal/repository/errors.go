// Package repository implements the data access layer over MySQL.  It
// defines sentinel errors shared across repositories so handlers and
// services can distinguish failure scenarios with errors.Is: conflicts
// translate to HTTP 409, stale versions to 409, duplicate identity
// fields to 400-level validation rejections.
package repository

import (
	"errors"
	"strings"
)

// ErrSeatTaken is returned when a booking loses the race for a seat:
// the seat_locks insert collided with another non-canceled ticket for
// the same (flight, seat).  This is an expected, user-retryable outcome.
var ErrSeatTaken = errors.New("seat already taken")

// ErrStaleVersion is returned when a versioned update matched no row
// because another writer got there first.  Callers should re-read and
// retry with fresh data.
var ErrStaleVersion = errors.New("stale version")

// ErrConflict is returned when an operation cannot proceed because of
// dependent records, such as regenerating seats that active tickets
// still reference.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when an email is already linked to an
// account.
var ErrEmailExists = errors.New("email already exists")

// ErrPassportExists is returned when a passport number is already
// linked to a different account.
var ErrPassportExists = errors.New("passport already registered")

// ErrFlightNumberExists is returned when a flight number is already in
// use.
var ErrFlightNumberExists = errors.New("flight number already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error 1062).  Uniqueness races surface through this check.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
