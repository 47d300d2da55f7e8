package services

import (
	"context"
	"errors"

	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrFeedbackNotEligible is returned when the traveler has no completed
// journey on the bus they are reviewing.
var ErrFeedbackNotEligible = errors.New("feedback requires a completed journey on this bus")

// FeedbackService accepts reviews from travelers who completed a journey.
type FeedbackService struct {
	feedbackRepo *database.FeedbackRepository
	logger       *logrus.Logger
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(feedbackRepo *database.FeedbackRepository, logger *logrus.Logger) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo, logger: logger}
}

// Submit stores a review after checking the traveler actually rode the bus:
// a settled booking whose boarding stop has already departed.
func (s *FeedbackService) Submit(ctx context.Context, userID string, req *models.SubmitFeedbackRequest) (*models.Feedback, error) {
	eligible, err := s.feedbackRepo.HasCompletedJourney(ctx, userID, req.BusID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrFeedbackNotEligible
	}

	feedback := &models.Feedback{
		UserID:    userID,
		BusID:     req.BusID,
		ReviewMsg: req.ReviewMsg,
	}
	if err := s.feedbackRepo.Create(ctx, feedback); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"bus_id":  req.BusID,
	}).Info("Feedback submitted")

	return feedback, nil
}

// ListForBus returns all reviews of a bus, newest first.
func (s *FeedbackService) ListForBus(ctx context.Context, busID string) ([]models.Feedback, error) {
	return s.feedbackRepo.GetByBusID(ctx, busID)
}
