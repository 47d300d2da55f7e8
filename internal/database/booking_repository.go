package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
)

// BookingRepository handles database operations for bookings, including the
// transactional seat-holding protocol against route_stops.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// lockedStop is the row image taken under FOR UPDATE during reservation.
type lockedStop struct {
	ID               string             `db:"id"`
	Location         string             `db:"location"`
	SeatAvailability models.StringArray `db:"seat_availability"`
}

// ReserveSegment removes the requested seats from every stop in the half-open
// range [fromOrder, toOrder) and creates the booking, all in one transaction.
// Stop rows are locked in stop_order so overlapping reservations serialize
// instead of deadlocking. If any seat is missing at any stop the transaction
// rolls back untouched and a SeatUnavailableError identifies the seat and
// stop.
func (r *BookingRepository) ReserveSegment(ctx context.Context, booking *models.Booking, fromOrder, toOrder int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT id, location, seat_availability
		FROM route_stops
		WHERE bus_id = $1 AND stop_order >= $2 AND stop_order < $3
		ORDER BY stop_order
		FOR UPDATE`

	var stops []lockedStop
	if err := tx.SelectContext(ctx, &stops, lockQuery, booking.BusID, fromOrder, toOrder); err != nil {
		return fmt.Errorf("failed to lock route stops: %w", err)
	}
	if len(stops) != toOrder-fromOrder {
		return models.ErrRouteNotFound
	}

	seatNumbers := booking.Seats.SeatNumbers()

	// Phase 1: validate every seat at every stop before touching anything.
	for _, stop := range stops {
		for _, seat := range seatNumbers {
			if !stop.SeatAvailability.Contains(seat) {
				return &models.SeatUnavailableError{SeatNumber: seat, Stop: stop.Location}
			}
		}
	}

	// Phase 2: apply the removal to every stop in range.
	updateQuery := `
		UPDATE route_stops
		SET seat_availability = $2, updated_at = NOW()
		WHERE id = $1`

	removing := make(map[string]struct{}, len(seatNumbers))
	for _, seat := range seatNumbers {
		removing[seat] = struct{}{}
	}
	for _, stop := range stops {
		remaining := make(models.StringArray, 0, len(stop.SeatAvailability)-len(seatNumbers))
		for _, seat := range stop.SeatAvailability {
			if _, gone := removing[seat]; !gone {
				remaining = append(remaining, seat)
			}
		}
		if _, err := tx.ExecContext(ctx, updateQuery, stop.ID, remaining); err != nil {
			return fmt.Errorf("failed to update availability at %s: %w", stop.Location, err)
		}
	}

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	insertQuery := `
		INSERT INTO bookings (
			id, payment_reference, bus_id, user_id,
			from_location, to_location, seats, seat_count,
			total_price_cents, booking_status, payment_status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, insertQuery,
		booking.ID, booking.PaymentReference, booking.BusID, booking.UserID,
		booking.FromLocation, booking.ToLocation, booking.Seats, booking.SeatCount,
		booking.TotalPriceCents, booking.BookingStatus, booking.PaymentStatus,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}
	return nil
}

// GetByReference retrieves a booking by its booking reference or, for
// bookings cancelled before settlement, its payment reference.
func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE booking_reference = $1 OR payment_reference = $1`
	return r.getOne(ctx, query, ref)
}

// GetByPaymentReference retrieves a booking by payment reference.
func (r *BookingRepository) GetByPaymentReference(ctx context.Context, paymentRef string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE payment_reference = $1`
	return r.getOne(ctx, query, paymentRef)
}

// GetByUserID retrieves all bookings for a user, newest first.
func (r *BookingRepository) GetByUserID(ctx context.Context, userID string) ([]models.Booking, error) {
	query := bookingSelect + ` WHERE user_id = $1 ORDER BY created_at DESC`

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

const bookingSelect = `
	SELECT id, payment_reference, booking_reference, bus_id, user_id,
	       from_location, to_location, seats, seat_count, total_price_cents,
	       booking_status, payment_status, booked_at, cancelled_at,
	       created_at, updated_at
	FROM bookings`

func (r *BookingRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.GetContext(ctx, &booking, query, args...)
	if err == sql.ErrNoRows {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// CancelParams carries everything the cancellation transaction writes.
type CancelParams struct {
	Booking        *models.Booking    // as read by the caller; UpdatedAt is the optimistic version
	RemainingSeats models.SeatAssignmentList
	CancelledSeats []string
	NewStatus      models.BookingStatus
	RefundCents    int64
	StopIDs        []string // stops of the original segment, for restoration rows
}

// CancelSeats applies a (partial) cancellation: the booking row is updated
// conditioned on its version being unchanged since the caller read it, refund
// metadata is added to the payment when one exists, and one restoration row
// per affected stop is queued. Seat availability itself is restored after
// commit, idempotently per stop, by the restoration repository.
func (r *BookingRepository) CancelSeats(ctx context.Context, p CancelParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bookingQuery := `
		UPDATE bookings
		SET seats = $2, booking_status = $3, payment_status = $4,
		    cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND updated_at = $5`

	result, err := tx.ExecContext(ctx, bookingQuery,
		p.Booking.ID, p.RemainingSeats, p.NewStatus, models.PaymentStatusRefunded,
		p.Booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Concurrent settle or cancel won the race.
		return models.ErrSettlementConflict
	}

	// A booking cancelled before settlement has no payment row yet; zero
	// rows affected here is fine.
	paymentQuery := `
		UPDATE payments
		SET status = $2,
		    refund_seats = COALESCE(refund_seats, '{}') || $3,
		    refund_amount_cents = COALESCE(refund_amount_cents, 0) + $4,
		    refunded_at = NOW()
		WHERE payment_reference = $1`

	_, err = tx.ExecContext(ctx, paymentQuery,
		p.Booking.PaymentReference, models.PaymentStatusRefunded,
		models.StringArray(p.CancelledSeats), p.RefundCents,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment refund: %w", err)
	}

	restorationQuery := `
		INSERT INTO seat_restorations (id, booking_id, stop_id, seats)
		VALUES ($1, $2, $3, $4)`

	for _, stopID := range p.StopIDs {
		_, err = tx.ExecContext(ctx, restorationQuery,
			uuid.New().String(), p.Booking.ID, stopID,
			models.StringArray(p.CancelledSeats),
		)
		if err != nil {
			return fmt.Errorf("failed to queue seat restoration: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return nil
}

// GenerateBookingReference produces a unique human-facing reference of the
// form BR-YYYYMMDD-XXXXXX.
func (r *BookingRepository) GenerateBookingReference(ctx context.Context) (string, error) {
	todayStr := time.Now().Format("20060102")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		newRef := fmt.Sprintf("BR-%s-%s", todayStr, strings.ToUpper(hex.EncodeToString(randomBytes)))

		var count int
		err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE booking_reference = $1`, newRef,
		).Scan(&count)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if count == 0 {
			return newRef, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique booking reference after 10 attempts")
}

// ListExpiredPending returns pending bookings created before the cutoff, for
// the expiry sweeper.
func (r *BookingRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]models.Booking, error) {
	query := bookingSelect + `
		WHERE booking_status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("failed to list expired pending bookings: %w", err)
	}
	return bookings, nil
}
