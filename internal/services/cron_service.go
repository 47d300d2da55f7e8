package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs: retrying pending seat
// restorations and expiring bookings whose payment never arrived.
type CronService struct {
	cron            *cron.Cron
	bookingRepo     *database.BookingRepository
	restorationRepo *database.RestorationRepository
	cancellationSvc *CancellationService
	paymentTimeout  time.Duration
	sweepLimit      int
	logger          *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	bookingRepo *database.BookingRepository,
	restorationRepo *database.RestorationRepository,
	cancellationSvc *CancellationService,
	paymentTimeout time.Duration,
	sweepLimit int,
	logger *logrus.Logger,
) *CronService {
	return &CronService{
		cron:            cron.New(),
		bookingRepo:     bookingRepo,
		restorationRepo: restorationRepo,
		cancellationSvc: cancellationSvc,
		paymentTimeout:  paymentTimeout,
		sweepLimit:      sweepLimit,
		logger:          logger,
	}
}

// Start schedules all background jobs and starts the scheduler.
func (s *CronService) Start() error {
	// Retry unapplied seat restorations every minute so a cancellation
	// interrupted mid-restore converges quickly.
	if _, err := s.cron.AddFunc("* * * * *", s.retryRestorationsJob); err != nil {
		return fmt.Errorf("failed to schedule restoration retry job: %w", err)
	}

	// Expire unpaid pending bookings every five minutes.
	if _, err := s.cron.AddFunc("*/5 * * * *", s.expirePendingBookingsJob); err != nil {
		return fmt.Errorf("failed to schedule booking expiry job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// retryRestorationsJob re-applies pending seat restorations.
func (s *CronService) retryRestorationsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := s.restorationRepo.ListPending(ctx, s.sweepLimit)
	if err != nil {
		s.logger.WithError(err).Error("Restoration sweep failed to list pending rows")
		return
	}
	if len(pending) == 0 {
		return
	}

	applied := 0
	for i := range pending {
		if err := s.restorationRepo.Apply(ctx, &pending[i]); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"restoration_id": pending[i].ID,
				"stop_id":        pending[i].StopID,
				"attempts":       pending[i].Attempts,
			}).Warn("Restoration retry failed")
			if recErr := s.restorationRepo.RecordFailure(ctx, pending[i].ID); recErr != nil {
				s.logger.WithError(recErr).Warn("Failed to record restoration attempt")
			}
			continue
		}
		applied++
	}

	s.logger.WithFields(logrus.Fields{
		"pending": len(pending),
		"applied": applied,
	}).Info("Restoration sweep finished")
}

// expirePendingBookingsJob cancels pending bookings older than the payment
// timeout, releasing their seats for other travelers.
func (s *CronService) expirePendingBookingsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.paymentTimeout)
	expired, err := s.bookingRepo.ListExpiredPending(ctx, cutoff, 100)
	if err != nil {
		s.logger.WithError(err).Error("Booking expiry sweep failed to list pending bookings")
		return
	}
	if len(expired) == 0 {
		return
	}

	s.cancellationSvc.ExpirePendingBookings(ctx, expired)
	s.logger.WithField("expired", len(expired)).Info("Booking expiry sweep finished")
}

// RunRestorationSweepNow runs the restoration retry job immediately, ahead
// of its schedule. Called at startup to drain restorations left over from a
// previous run before traffic arrives.
func (s *CronService) RunRestorationSweepNow() {
	s.retryRestorationsJob()
}
