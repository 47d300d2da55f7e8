package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ReservationService atomically claims seats for a contiguous segment and
// creates the pending booking the traveler pays against.
type ReservationService struct {
	busRepo     *database.BusRepository
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	busRepo *database.BusRepository,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		busRepo:     busRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Reserve resolves the segment, removes the requested seats from every stop
// in range and creates a pending booking, all-or-nothing. The returned
// payment reference is the idempotency key for settlement.
func (s *ReservationService) Reserve(ctx context.Context, userID string, req *models.ReserveSeatsRequest) (*models.ReservationSummary, error) {
	seen := make(map[string]struct{}, len(req.Seats))
	for _, seat := range req.Seats {
		if _, dup := seen[seat.SeatNumber]; dup {
			return nil, &models.DuplicateSeatError{SeatNumber: seat.SeatNumber}
		}
		seen[seat.SeatNumber] = struct{}{}
	}

	// The payment reference stays stable across retries; failed attempts
	// roll back without a trace.
	paymentRef := uuid.New().String()

	var booking *models.Booking
	err := withConflictRetry(ctx, s.logger, "reserve", func() error {
		bus, opErr := s.busRepo.GetByID(ctx, req.BusID)
		if opErr != nil {
			return opErr
		}

		segment, opErr := ResolveSegment(bus.Stops, req.From, req.To)
		if opErr != nil {
			return opErr
		}

		booking = &models.Booking{
			PaymentReference: paymentRef,
			BusID:            bus.ID,
			UserID:           userID,
			FromLocation:     req.From,
			ToLocation:       req.To,
			Seats:            models.SeatAssignmentList(req.Seats),
			SeatCount:        len(req.Seats),
			TotalPriceCents:  segment.PriceCents * int64(len(req.Seats)),
			BookingStatus:    models.BookingStatusPending,
			PaymentStatus:    models.PaymentStatusPending,
		}
		return s.bookingRepo.ReserveSegment(ctx, booking, segment.FromIndex, segment.ToIndex)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_reference": booking.PaymentReference,
		"bus_id":            booking.BusID,
		"from":              req.From,
		"to":                req.To,
		"seat_count":        booking.SeatCount,
		"total_price_cents": booking.TotalPriceCents,
	}).Info("Seats reserved")

	return &models.ReservationSummary{
		PaymentReference: booking.PaymentReference,
		TotalPriceCents:  booking.TotalPriceCents,
		SeatCount:        booking.SeatCount,
	}, nil
}
