package services

import (
	"context"
	"time"

	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	maxConflictRetries = 3
	initialBackoff     = 50 * time.Millisecond
)

// withConflictRetry runs op, retrying with doubling backoff when the storage
// layer reports a serialization failure, a deadlock, or a connection-class
// failure. The guarded operations are all-or-nothing, so a retry re-runs the
// whole check-and-mutate cycle. Exhausting the attempts surfaces
// ErrPersistenceConflict for contention and ErrPersistenceUnavailable when
// the storage itself could not be reached.
func withConflictRetry(ctx context.Context, logger *logrus.Logger, name string, op func() error) error {
	backoff := initialBackoff
	var err error

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !database.IsRetryableConflict(err) && !database.IsConnectionError(err) {
			return err
		}

		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
		}).WithError(err).Warn("Storage error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if database.IsConnectionError(err) {
		logger.WithField("operation", name).WithError(err).Error("Storage unreachable, retries exhausted")
		return models.ErrPersistenceUnavailable
	}
	logger.WithField("operation", name).WithError(err).Error("Storage conflict retries exhausted")
	return models.ErrPersistenceConflict
}
