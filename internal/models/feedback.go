package models

import "time"

// Feedback is an append-only traveler review of a completed journey.
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	BusID     string    `json:"bus_id" db:"bus_id"`
	ReviewMsg string    `json:"review_msg" db:"review_msg"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubmitFeedbackRequest posts a review for a bus the traveler rode.
type SubmitFeedbackRequest struct {
	BusID     string `json:"bus_id" binding:"required"`
	ReviewMsg string `json:"review_msg" binding:"required,min=5,max=500"`
}
