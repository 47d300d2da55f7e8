package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCronTest(t *testing.T) (*CronService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := testLogger()
	bookingRepo := database.NewBookingRepository(sqlxDB)
	restorationRepo := database.NewRestorationRepository(sqlxDB)
	cancellationSvc := NewCancellationService(
		database.NewBusRepository(sqlxDB),
		bookingRepo,
		restorationRepo,
		database.NewPaymentAuditRepository(sqlxDB, logger),
		logger,
	)
	service := NewCronService(bookingRepo, restorationRepo, cancellationSvc, 15*time.Minute, 200, logger)

	cleanup := func() {
		db.Close()
	}
	return service, mock, cleanup
}

func TestRunRestorationSweepNow_AppliesPending(t *testing.T) {
	service, mock, cleanup := setupCronTest(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectQuery("FROM seat_restorations").
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "stop_id", "seats", "applied", "attempts", "created_at", "applied_at",
		}).AddRow("rest-1", "booking-1", "stop-a", "{B1}", false, 2, now, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_availability FROM route_stops").
		WithArgs("stop-a").
		WillReturnRows(sqlmock.NewRows([]string{"seat_availability"}).AddRow("{A1,A2}"))
	mock.ExpectExec("UPDATE route_stops").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE seat_restorations").
		WithArgs("rest-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	service.RunRestorationSweepNow()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRestorationSweepNow_NothingPending(t *testing.T) {
	service, mock, cleanup := setupCronTest(t)
	defer cleanup()

	mock.ExpectQuery("FROM seat_restorations").
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "stop_id", "seats", "applied", "attempts", "created_at", "applied_at",
		}))

	service.RunRestorationSweepNow()

	assert.NoError(t, mock.ExpectationsWereMet())
}
