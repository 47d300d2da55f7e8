package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
)

// FeedbackRepository handles the append-only feedback store.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create appends a feedback record.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}

	query := `
		INSERT INTO feedbacks (id, user_id, bus_id, review_msg)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		feedback.ID, feedback.UserID, feedback.BusID, feedback.ReviewMsg,
	).Scan(&feedback.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// GetByBusID returns all feedback for a bus, newest first.
func (r *FeedbackRepository) GetByBusID(ctx context.Context, busID string) ([]models.Feedback, error) {
	query := `
		SELECT id, user_id, bus_id, review_msg, created_at
		FROM feedbacks
		WHERE bus_id = $1
		ORDER BY created_at DESC`

	var feedbacks []models.Feedback
	if err := r.db.SelectContext(ctx, &feedbacks, query, busID); err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return feedbacks, nil
}

// HasCompletedJourney reports whether the user holds a booked booking on the
// bus whose boarding departure is already in the past. Feedback eligibility
// requires the journey to have started.
func (r *FeedbackRepository) HasCompletedJourney(ctx context.Context, userID, busID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings bk
			JOIN route_stops s ON s.bus_id = bk.bus_id AND s.location = bk.from_location
			WHERE bk.user_id = $1
			  AND bk.bus_id = $2
			  AND bk.booking_status = 'booked'
			  AND s.departure_time < NOW()
		)`

	var eligible bool
	if err := r.db.QueryRowContext(ctx, query, userID, busID).Scan(&eligible); err != nil {
		return false, fmt.Errorf("failed to check journey completion: %w", err)
	}
	return eligible, nil
}
