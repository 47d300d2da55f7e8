package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and handlers.
var (
	// ErrRouteNotFound is returned when a bus or route does not exist.
	ErrRouteNotFound = errors.New("route not found")

	// ErrBookingNotFound is returned when no booking matches the reference.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotAuthorized is returned when a traveler acts on someone else's
	// booking.
	ErrNotAuthorized = errors.New("booking belongs to another traveler")

	// ErrDuplicatePayment is returned when a payment reference has already
	// been settled.
	ErrDuplicatePayment = errors.New("payment reference already settled")

	// ErrSettlementConflict is returned when a booking changed state under
	// a settlement or cancellation, leaving no row to update.
	ErrSettlementConflict = errors.New("booking state changed concurrently")

	// ErrPersistenceConflict is returned after retries of a serialization
	// or deadlock failure are exhausted.
	ErrPersistenceConflict = errors.New("persistent storage conflict")

	// ErrPersistenceUnavailable is returned when storage cannot be reached.
	ErrPersistenceUnavailable = errors.New("persistent storage unavailable")
)

// InvalidSegmentError reports a (from, to) pair that does not lie on the
// route in travel order.
type InvalidSegmentError struct {
	From string
	To   string
}

func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("no segment from %q to %q on this route", e.From, e.To)
}

// NoFareDefinedError reports a segment the route serves but has no fare for.
type NoFareDefinedError struct {
	From string
	To   string
}

func (e *NoFareDefinedError) Error() string {
	return fmt.Sprintf("no fare defined from %q to %q", e.From, e.To)
}

// DuplicateSeatError reports the same seat requested twice in one booking.
type DuplicateSeatError struct {
	SeatNumber string
}

func (e *DuplicateSeatError) Error() string {
	return fmt.Sprintf("seat %q requested more than once", e.SeatNumber)
}

// SeatUnavailableError reports a seat already taken at some stop of the
// requested segment.
type SeatUnavailableError struct {
	SeatNumber string
	Stop       string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %q is not available at %q", e.SeatNumber, e.Stop)
}

// UnknownSeatError reports a cancellation naming a seat the booking does not
// hold.
type UnknownSeatError struct {
	SeatNumber string
}

func (e *UnknownSeatError) Error() string {
	return fmt.Sprintf("seat %q is not part of this booking", e.SeatNumber)
}

// IsValidationError reports whether err is a request validation failure the
// caller should fix, as opposed to a conflict or infrastructure problem.
func IsValidationError(err error) bool {
	var invalidSegment *InvalidSegmentError
	var noFare *NoFareDefinedError
	var dupSeat *DuplicateSeatError
	var unknownSeat *UnknownSeatError
	return errors.As(err, &invalidSegment) ||
		errors.As(err, &noFare) ||
		errors.As(err, &dupSeat) ||
		errors.As(err, &unknownSeat)
}

// IsConflictError reports whether err is a concurrency or idempotency
// conflict that a client may resolve by re-reading current state.
func IsConflictError(err error) bool {
	var seatTaken *SeatUnavailableError
	return errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrSettlementConflict) ||
		errors.Is(err, ErrPersistenceConflict) ||
		errors.As(err, &seatTaken)
}
