package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
)

// RestorationRepository handles the cancellation recovery list: pending
// seat restorations queued by CancelSeats and applied until confirmed.
type RestorationRepository struct {
	db *sqlx.DB
}

// NewRestorationRepository creates a new RestorationRepository
func NewRestorationRepository(db *sqlx.DB) *RestorationRepository {
	return &RestorationRepository{db: db}
}

// ListPending returns unapplied restorations, oldest first.
func (r *RestorationRepository) ListPending(ctx context.Context, limit int) ([]models.SeatRestoration, error) {
	query := `
		SELECT id, booking_id, stop_id, seats, applied, attempts, created_at, applied_at
		FROM seat_restorations
		WHERE applied = false
		ORDER BY created_at
		LIMIT $1`

	var pending []models.SeatRestoration
	if err := r.db.SelectContext(ctx, &pending, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending restorations: %w", err)
	}
	return pending, nil
}

// ListForBooking returns the unapplied restorations of one booking, ordered
// by stop.
func (r *RestorationRepository) ListForBooking(ctx context.Context, bookingID string) ([]models.SeatRestoration, error) {
	query := `
		SELECT id, booking_id, stop_id, seats, applied, attempts, created_at, applied_at
		FROM seat_restorations
		WHERE booking_id = $1 AND applied = false
		ORDER BY created_at`

	var pending []models.SeatRestoration
	if err := r.db.SelectContext(ctx, &pending, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list restorations for booking: %w", err)
	}
	return pending, nil
}

// PendingForBooking reports how many restorations are still unapplied for a
// booking; the cancellation is only final once this reaches zero.
func (r *RestorationRepository) PendingForBooking(ctx context.Context, bookingID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seat_restorations WHERE booking_id = $1 AND applied = false`,
		bookingID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending restorations: %w", err)
	}
	return count, nil
}

// Apply re-inserts the restoration's seats into its stop's availability and
// marks the row applied, in one transaction. The union is computed under a
// row lock, so re-applying (or racing another restoration for the same stop)
// never duplicates a seat.
func (r *RestorationRepository) Apply(ctx context.Context, restoration *models.SeatRestoration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var availability models.StringArray
	err = tx.QueryRowContext(ctx,
		`SELECT seat_availability FROM route_stops WHERE id = $1 FOR UPDATE`,
		restoration.StopID,
	).Scan(&availability)
	if err != nil {
		return fmt.Errorf("failed to lock stop for restoration: %w", err)
	}

	for _, seat := range restoration.Seats {
		if !availability.Contains(seat) {
			availability = append(availability, seat)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE route_stops SET seat_availability = $2, updated_at = NOW() WHERE id = $1`,
		restoration.StopID, availability,
	)
	if err != nil {
		return fmt.Errorf("failed to restore availability: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE seat_restorations
		 SET applied = true, attempts = attempts + 1, applied_at = NOW()
		 WHERE id = $1 AND applied = false`,
		restoration.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark restoration applied: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		// Another worker already applied it.
		return nil
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restoration: %w", err)
	}
	return nil
}

// RecordFailure bumps the attempt counter after a failed Apply.
func (r *RestorationRepository) RecordFailure(ctx context.Context, restorationID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE seat_restorations SET attempts = attempts + 1 WHERE id = $1`,
		restorationID,
	)
	return err
}
