package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// SettlementService idempotently transitions a pending booking to booked
// upon payment, recording the payment artifact exactly once per payment
// reference.
type SettlementService struct {
	paymentRepo *database.PaymentRepository
	bookingRepo *database.BookingRepository
	auditRepo   *database.PaymentAuditRepository
	bcryptCost  int
	logger      *logrus.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	paymentRepo *database.PaymentRepository,
	bookingRepo *database.BookingRepository,
	auditRepo *database.PaymentAuditRepository,
	bcryptCost int,
	logger *logrus.Logger,
) *SettlementService {
	return &SettlementService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		auditRepo:   auditRepo,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// AuditContext carries request metadata onto the payment audit trail.
type AuditContext struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// Settle masks the credential material, records the payment and confirms the
// booking. Replays of the same payment reference fail with
// ErrDuplicatePayment; a booking already settled or cancelled surfaces as
// ErrSettlementConflict and leaves no payment row behind.
func (s *SettlementService) Settle(ctx context.Context, audit AuditContext, req *models.SettlePaymentRequest) (*models.SettlementResult, error) {
	card := req.AccountDetails

	// One-way masking before anything is stored; only the last four digits
	// of the card number ever reach the hasher.
	last4 := card.CardNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	last4Hash, err := s.mask(last4)
	if err != nil {
		return nil, err
	}
	expiryHash, err := s.mask(card.ExpiryDate)
	if err != nil {
		return nil, err
	}
	cvvHash, err := s.mask(card.CVV)
	if err != nil {
		return nil, err
	}

	bookingRef, err := s.bookingRepo.GenerateBookingReference(ctx)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		PaymentReference: req.PaymentReference,
		PaymentMethod:    card.PaymentMethod,
		CardLast4Hash:    last4Hash,
		ExpiryHash:       expiryHash,
		CVVHash:          cvvHash,
		Status:           models.PaymentStatusSuccess,
	}

	var booking *models.Booking
	err = withConflictRetry(ctx, s.logger, "settle", func() error {
		var settleErr error
		booking, settleErr = s.paymentRepo.Settle(ctx, payment, bookingRef)
		return settleErr
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicatePayment) {
			s.logAudit(ctx, audit, req.PaymentReference, nil, models.PaymentEventDuplicate, 0)
		}
		return nil, err
	}

	s.logAudit(ctx, audit, req.PaymentReference, booking.BookingReference, models.PaymentEventSettled, booking.TotalPriceCents)

	s.logger.WithFields(logrus.Fields{
		"payment_reference": req.PaymentReference,
		"booking_reference": bookingRef,
		"total_price_cents": booking.TotalPriceCents,
	}).Info("Payment settled")

	return &models.SettlementResult{
		BookingReference: bookingRef,
		BusID:            booking.BusID,
		Seats:            booking.Seats,
		TotalPriceCents:  booking.TotalPriceCents,
		PaymentStatus:    booking.PaymentStatus,
	}, nil
}

func (s *SettlementService) mask(material string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(material), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to mask credential material: %w", err)
	}
	return string(hash), nil
}

func (s *SettlementService) logAudit(ctx context.Context, audit AuditContext, paymentRef string, bookingRef *string, event models.PaymentAuditEventType, amount int64) {
	entry := &models.PaymentAudit{
		PaymentReference: paymentRef,
		BookingReference: bookingRef,
		EventType:        event,
		AmountCents:      amount,
		UserID:           audit.UserID,
		IPAddress:        audit.IPAddress,
		UserAgent:        audit.UserAgent,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("payment_reference", paymentRef).
			Error("Payment settled but audit entry failed")
	}
}
