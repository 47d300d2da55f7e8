package models

import (
	"time"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending            BookingStatus = "pending"
	BookingStatusBooked             BookingStatus = "booked"
	BookingStatusCancelled          BookingStatus = "cancelled"
	BookingStatusPartiallyCancelled BookingStatus = "partially_cancelled"
)

// SeatAssignment couples a seat number with the passenger riding in it.
type SeatAssignment struct {
	SeatNumber string `json:"seat_number" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Age        int    `json:"age" binding:"required,min=1,max=120"`
	Gender     string `json:"gender" binding:"required,oneof=Male Female Other"`
}

// Booking represents one traveler's claim over a set of seats for a segment.
// Rows are never deleted; cancellations only transition status fields.
type Booking struct {
	ID               string             `json:"id" db:"id"`
	PaymentReference string             `json:"payment_reference" db:"payment_reference"`
	BookingReference *string            `json:"booking_reference,omitempty" db:"booking_reference"`
	BusID            string             `json:"bus_id" db:"bus_id"`
	UserID           string             `json:"user_id" db:"user_id"`
	FromLocation     string             `json:"from_location" db:"from_location"`
	ToLocation       string             `json:"to_location" db:"to_location"`
	Seats            SeatAssignmentList `json:"seats" db:"seats"`
	SeatCount        int                `json:"seat_count" db:"seat_count"`
	TotalPriceCents  int64              `json:"total_price_cents" db:"total_price_cents"`
	BookingStatus    BookingStatus      `json:"booking_status" db:"booking_status"`
	PaymentStatus    PaymentStatus      `json:"payment_status" db:"payment_status"`
	BookedAt         *time.Time         `json:"booked_at,omitempty" db:"booked_at"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// CanSettle reports whether the booking is still waiting for payment.
func (b *Booking) CanSettle() bool {
	return b.BookingStatus == BookingStatusPending
}

// CanCancel reports whether further seats can still be cancelled.
func (b *Booking) CanCancel() bool {
	switch b.BookingStatus {
	case BookingStatusPending, BookingStatusBooked, BookingStatusPartiallyCancelled:
		return true
	}
	return false
}

// SeatsAfterCancelling returns the seats that remain once the given seat
// numbers are removed, or an UnknownSeatError when a number is not part of
// the booking.
func (b *Booking) SeatsAfterCancelling(seatNumbers []string) (SeatAssignmentList, error) {
	held := make(map[string]struct{}, len(b.Seats))
	for _, s := range b.Seats {
		held[s.SeatNumber] = struct{}{}
	}
	cancelling := make(map[string]struct{}, len(seatNumbers))
	for _, n := range seatNumbers {
		if _, ok := held[n]; !ok {
			return nil, &UnknownSeatError{SeatNumber: n}
		}
		cancelling[n] = struct{}{}
	}

	remaining := make(SeatAssignmentList, 0, len(b.Seats)-len(cancelling))
	for _, s := range b.Seats {
		if _, gone := cancelling[s.SeatNumber]; !gone {
			remaining = append(remaining, s)
		}
	}
	return remaining, nil
}

// ReserveSeatsRequest is the traveler-facing payload for reserving seats.
type ReserveSeatsRequest struct {
	BusID string           `json:"bus_id" binding:"required"`
	From  string           `json:"from" binding:"required"`
	To    string           `json:"to" binding:"required"`
	Seats []SeatAssignment `json:"seats" binding:"required,min=1,dive"`
}

// ReservationSummary is returned by a successful reservation; the traveler
// pays against the payment reference before a booking reference exists.
type ReservationSummary struct {
	PaymentReference string `json:"payment_reference"`
	TotalPriceCents  int64  `json:"total_price_cents"`
	SeatCount        int    `json:"seat_count"`
}

// CancelBookingRequest names the seats to release.
type CancelBookingRequest struct {
	BookingReference string   `json:"booking_reference" binding:"required"`
	SeatNumbers      []string `json:"seat_numbers" binding:"required,min=1"`
}

// CancellationResult reports the outcome of a cancellation.
type CancellationResult struct {
	BookingReference  string        `json:"booking_reference"`
	BusID             string        `json:"bus_id"`
	RefundedSeats     []string      `json:"refunded_seats"`
	RefundAmountCents int64         `json:"refund_amount_cents"`
	BookingStatus     BookingStatus `json:"booking_status"`
	RemainingSeats    int           `json:"remaining_seats"`
	// SeatsRestored is false while any stop still waits for its seats
	// back; the sweeper finishes those shortly after.
	SeatsRestored bool `json:"seats_restored"`
}
