package services

import (
	"context"

	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// CancellationService reverses reservations fully or partially: it releases
// seats back to every stop of the original segment, computes the
// proportional refund and transitions booking and payment state.
type CancellationService struct {
	busRepo         *database.BusRepository
	bookingRepo     *database.BookingRepository
	restorationRepo *database.RestorationRepository
	auditRepo       *database.PaymentAuditRepository
	logger          *logrus.Logger
}

// NewCancellationService creates a new CancellationService
func NewCancellationService(
	busRepo *database.BusRepository,
	bookingRepo *database.BookingRepository,
	restorationRepo *database.RestorationRepository,
	auditRepo *database.PaymentAuditRepository,
	logger *logrus.Logger,
) *CancellationService {
	return &CancellationService{
		busRepo:         busRepo,
		bookingRepo:     bookingRepo,
		restorationRepo: restorationRepo,
		auditRepo:       auditRepo,
		logger:          logger,
	}
}

// Cancel releases the named seats. The refund is proportional to the seat
// count: total_price * cancelled / original, banker's-rounded to the cent.
// Booking and payment rows are updated and the per-stop restorations queued
// in one transaction; the seat availability itself is then restored stop by
// stop, and any stop that fails stays on the recovery list for the sweeper —
// retried to completion, never dropped.
func (s *CancellationService) Cancel(ctx context.Context, audit AuditContext, req *models.CancelBookingRequest) (*models.CancellationResult, error) {
	var result *models.CancellationResult

	err := withConflictRetry(ctx, s.logger, "cancel", func() error {
		var cancelErr error
		result, cancelErr = s.cancelOnce(ctx, audit, req)
		return cancelErr
	})
	return result, err
}

func (s *CancellationService) cancelOnce(ctx context.Context, audit AuditContext, req *models.CancelBookingRequest) (*models.CancellationResult, error) {
	booking, err := s.bookingRepo.GetByReference(ctx, req.BookingReference)
	if err != nil {
		return nil, err
	}
	if booking.UserID != audit.UserID {
		return nil, models.ErrNotAuthorized
	}
	if !booking.CanCancel() {
		return nil, models.ErrSettlementConflict
	}

	remaining, err := booking.SeatsAfterCancelling(req.SeatNumbers)
	if err != nil {
		return nil, err
	}

	newStatus := models.BookingStatusPartiallyCancelled
	if len(remaining) == 0 {
		newStatus = models.BookingStatusCancelled
	}

	// Refund stays proportional to the original seat count across
	// successive partial cancellations, so the refunds of a booking
	// cancelled in pieces sum to its total price.
	cancelled := len(booking.Seats) - len(remaining)
	refund := models.ProportionalRefund(booking.TotalPriceCents, cancelled, booking.SeatCount)

	// Persist the actual removed set, not the request's seat list, so a
	// repeated seat number never lands twice in refund_seats or the
	// restoration rows.
	remainingSet := make(map[string]struct{}, len(remaining))
	for _, seat := range remaining {
		remainingSet[seat.SeatNumber] = struct{}{}
	}
	removedSeats := make([]string, 0, cancelled)
	for _, seat := range booking.Seats {
		if _, held := remainingSet[seat.SeatNumber]; !held {
			removedSeats = append(removedSeats, seat.SeatNumber)
		}
	}

	bus, err := s.busRepo.GetByID(ctx, booking.BusID)
	if err != nil {
		return nil, err
	}
	segment, err := ResolveSegment(bus.Stops, booking.FromLocation, booking.ToLocation)
	if err != nil {
		return nil, err
	}
	stopIDs := make([]string, 0, segment.ToIndex-segment.FromIndex)
	for i := segment.FromIndex; i < segment.ToIndex; i++ {
		stopIDs = append(stopIDs, bus.Stops[i].ID)
	}

	err = s.bookingRepo.CancelSeats(ctx, database.CancelParams{
		Booking:        booking,
		RemainingSeats: remaining,
		CancelledSeats: removedSeats,
		NewStatus:      newStatus,
		RefundCents:    refund,
		StopIDs:        stopIDs,
	})
	if err != nil {
		return nil, err
	}

	s.restoreSeats(ctx, booking.ID)

	// The cancellation is only final once every stop got its seats back;
	// anything still pending belongs to the sweeper.
	seatsRestored := false
	if pending, countErr := s.restorationRepo.PendingForBooking(ctx, booking.ID); countErr != nil {
		s.logger.WithError(countErr).WithField("booking_id", booking.ID).
			Warn("Failed to count pending restorations")
	} else {
		seatsRestored = pending == 0
		if pending > 0 {
			s.logger.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"pending":    pending,
			}).Warn("Seat restorations deferred to sweeper")
		}
	}

	bookingRef := booking.PaymentReference
	if booking.BookingReference != nil {
		bookingRef = *booking.BookingReference
	}

	// Nothing was ever charged on a pending booking, so no refund event.
	if refund > 0 && booking.PaymentStatus == models.PaymentStatusSuccess {
		s.logRefundAudit(ctx, audit, booking, bookingRef, refund)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_reference":   bookingRef,
		"cancelled_seats":     removedSeats,
		"refund_amount_cents": refund,
		"new_status":          newStatus,
	}).Info("Booking cancelled")

	return &models.CancellationResult{
		BookingReference:  bookingRef,
		BusID:             booking.BusID,
		RefundedSeats:     removedSeats,
		RefundAmountCents: refund,
		BookingStatus:     newStatus,
		RemainingSeats:    len(remaining),
		SeatsRestored:     seatsRestored,
	}, nil
}

// restoreSeats applies the booking's queued restorations immediately. A
// failure here is not an error for the caller: the rows stay pending and the
// sweeper retries them until every stop is confirmed.
func (s *CancellationService) restoreSeats(ctx context.Context, bookingID string) {
	pending, err := s.restorationRepo.ListForBooking(ctx, bookingID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).
			Error("Failed to load seat restorations; sweeper will retry")
		return
	}

	for i := range pending {
		if err := s.restorationRepo.Apply(ctx, &pending[i]); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"booking_id": bookingID,
				"stop_id":    pending[i].StopID,
			}).Error("Seat restoration failed; sweeper will retry")
			if recErr := s.restorationRepo.RecordFailure(ctx, pending[i].ID); recErr != nil {
				s.logger.WithError(recErr).Warn("Failed to record restoration attempt")
			}
		}
	}
}

func (s *CancellationService) logRefundAudit(ctx context.Context, audit AuditContext, booking *models.Booking, bookingRef string, refund int64) {
	entry := &models.PaymentAudit{
		PaymentReference: booking.PaymentReference,
		BookingReference: &bookingRef,
		EventType:        models.PaymentEventRefundIssued,
		AmountCents:      refund,
		UserID:           audit.UserID,
		IPAddress:        audit.IPAddress,
		UserAgent:        audit.UserAgent,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("payment_reference", booking.PaymentReference).
			Error("Refund issued but audit entry failed")
	}
}

// ExpirePendingBookings cancels pending bookings older than the payment
// timeout, releasing their seats. Payment never happened, so no refund is
// recorded.
func (s *CancellationService) ExpirePendingBookings(ctx context.Context, bookings []models.Booking) {
	for i := range bookings {
		booking := &bookings[i]
		req := &models.CancelBookingRequest{
			BookingReference: booking.PaymentReference,
			SeatNumbers:      booking.Seats.SeatNumbers(),
		}
		audit := AuditContext{UserID: booking.UserID}
		if _, err := s.Cancel(ctx, audit, req); err != nil {
			s.logger.WithError(err).WithField("payment_reference", booking.PaymentReference).
				Warn("Failed to expire pending booking")
		}
	}
}
