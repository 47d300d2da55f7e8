package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
)

// PaymentRepository handles database operations for payments, including the
// settlement transaction against bookings.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Settle records the payment and confirms the booking in one transaction.
//
// The unique constraint on payments.payment_reference is the idempotency
// guard: a replayed settlement fails the insert with ErrDuplicatePayment.
// The booking update is conditioned on the booking still being pending; zero
// rows affected means a concurrent settle or cancel won, the transaction
// rolls back and the payment row never survives.
func (r *PaymentRepository) Settle(ctx context.Context, payment *models.Payment, bookingRef string) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var booking models.Booking
	lookupQuery := bookingSelect + ` WHERE payment_reference = $1`
	err = tx.GetContext(ctx, &booking, lookupQuery, payment.PaymentReference)
	if err == sql.ErrNoRows {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking for settlement: %w", err)
	}

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	payment.BookingID = booking.ID

	insertQuery := `
		INSERT INTO payments (
			id, payment_reference, booking_id, payment_method,
			card_last4_hash, expiry_hash, cvv_hash, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err = tx.QueryRowContext(ctx, insertQuery,
		payment.ID, payment.PaymentReference, payment.BookingID, payment.PaymentMethod,
		payment.CardLast4Hash, payment.ExpiryHash, payment.CVVHash, payment.Status,
	).Scan(&payment.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, models.ErrDuplicatePayment
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	updateQuery := `
		UPDATE bookings
		SET booking_status = $2, payment_status = $3, booking_reference = $4,
		    booked_at = NOW(), updated_at = NOW()
		WHERE payment_reference = $1 AND booking_status = 'pending'`

	result, err := tx.ExecContext(ctx, updateQuery,
		payment.PaymentReference, models.BookingStatusBooked,
		models.PaymentStatusSuccess, bookingRef,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.ErrSettlementConflict
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	booking.BookingReference = &bookingRef
	booking.BookingStatus = models.BookingStatusBooked
	booking.PaymentStatus = models.PaymentStatusSuccess
	return &booking, nil
}

// GetByReference retrieves a payment by payment reference.
func (r *PaymentRepository) GetByReference(ctx context.Context, paymentRef string) (*models.Payment, error) {
	query := `
		SELECT id, payment_reference, booking_id, payment_method,
		       card_last4_hash, expiry_hash, cvv_hash, status,
		       refund_seats, refund_amount_cents, refunded_at, created_at
		FROM payments
		WHERE payment_reference = $1`

	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, query, paymentRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}
