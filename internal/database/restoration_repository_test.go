package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRestorationTest(t *testing.T) (*RestorationRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRestorationRepository(sqlxDB)

	cleanup := func() {
		db.Close()
	}
	return repo, mock, cleanup
}

func TestRestorationApply_InsertsOnlyMissingSeats(t *testing.T) {
	repo, mock, cleanup := setupRestorationTest(t)
	defer cleanup()

	// A1 is already back in the pool; only B1 may be added.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_availability FROM route_stops").
		WithArgs("stop-a").
		WillReturnRows(sqlmock.NewRows([]string{"seat_availability"}).AddRow("{A1,A2}"))
	mock.ExpectExec("UPDATE route_stops").
		WithArgs("stop-a", models.StringArray{"A1", "A2", "B1"}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE seat_restorations").
		WithArgs("rest-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Apply(context.Background(), &models.SeatRestoration{
		ID:      "rest-1",
		StopID:  "stop-a",
		Seats:   models.StringArray{"A1", "B1"},
		Applied: false,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestorationApply_AlreadyAppliedIsNoop(t *testing.T) {
	repo, mock, cleanup := setupRestorationTest(t)
	defer cleanup()

	// A racing worker marked the row applied first; the availability write
	// is abandoned with the transaction.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT seat_availability FROM route_stops").
		WithArgs("stop-a").
		WillReturnRows(sqlmock.NewRows([]string{"seat_availability"}).AddRow("{A1,A2,B1}"))
	mock.ExpectExec("UPDATE route_stops").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE seat_restorations").
		WithArgs("rest-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Apply(context.Background(), &models.SeatRestoration{
		ID:     "rest-1",
		StopID: "stop-a",
		Seats:  models.StringArray{"A1", "B1"},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPending_OldestFirst(t *testing.T) {
	repo, mock, cleanup := setupRestorationTest(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("FROM seat_restorations").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "stop_id", "seats", "applied", "attempts", "created_at", "applied_at",
		}).
			AddRow("rest-1", "booking-1", "stop-a", "{B1}", false, 2, now.Add(-time.Hour), nil).
			AddRow("rest-2", "booking-1", "stop-b", "{B1}", false, 0, now, nil))

	pending, err := repo.ListPending(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "rest-1", pending[0].ID)
	assert.Equal(t, 2, pending[0].Attempts)

	assert.NoError(t, mock.ExpectationsWereMet())
}
