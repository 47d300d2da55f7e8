package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBusTest(t *testing.T) (*BusService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	service := NewBusService(database.NewBusRepository(sqlxDB), testLogger())

	cleanup := func() {
		db.Close()
	}
	return service, mock, cleanup
}

func registerBusRequest() *models.RegisterBusRequest {
	base := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	return &models.RegisterBusRequest{
		BusName:          "Colombo Express",
		BusNumber:        "NB-4521",
		TotalSeats:       2,
		SeatAvailability: []string{"A1", "B1"},
		Features:         []string{"AC"},
		Stops: []models.RegisterStopSpec{
			{Location: "Colombo", DepartureTime: base, Fares: models.FareMap{"Kandy": 1500, "Matale": 2200}},
			{Location: "Kandy", DepartureTime: base.Add(3 * time.Hour), Fares: models.FareMap{"Matale": 900}},
			{Location: "Matale", DepartureTime: base.Add(4 * time.Hour)},
		},
	}
}

func TestRegisterBus_Success(t *testing.T) {
	service, mock, cleanup := setupBusTest(t)
	defer cleanup()

	now := time.Now()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO buses").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	for range registerBusRequest().Stops {
		mock.ExpectQuery("INSERT INTO route_stops").
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	}
	mock.ExpectCommit()

	bus, err := service.RegisterBus(context.Background(), registerBusRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, bus.ID)
	assert.Equal(t, "Colombo", bus.Origin)
	assert.Equal(t, "Matale", bus.Destination)
	require.Len(t, bus.Stops, 3)
	assert.Equal(t, 1, bus.Stops[1].StopOrder)
	// Every stop starts with the full seat pool.
	assert.Equal(t, models.StringArray{"A1", "B1"}, bus.Stops[2].SeatAvailability)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterBus_Duplicate(t *testing.T) {
	service, mock, cleanup := setupBusTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := service.RegisterBus(context.Background(), registerBusRequest())
	assert.ErrorIs(t, err, ErrBusAlreadyRegistered)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterBus_InvalidRoute(t *testing.T) {
	service, mock, cleanup := setupBusTest(t)
	defer cleanup()

	req := registerBusRequest()
	req.Stops = req.Stops[:1]

	_, err := service.RegisterBus(context.Background(), req)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTrips_FiltersAndSorts(t *testing.T) {
	service, mock, cleanup := setupBusTest(t)
	defer cleanup()

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM buses").
		WithArgs(day, day.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_name", "bus_number", "total_seats", "features",
			"origin", "destination", "created_at",
		}).
			AddRow("bus-1", "Colombo Express", "NB-4521", 3, "{AC}", "Colombo", "Dambulla", day).
			AddRow("bus-2", "Hill Rider", "NB-7788", 3, "{AC}", "Colombo", "Matale", day))

	// bus-1 serves Colombo→Matale at 2200 with A2 taken at Kandy.
	mock.ExpectQuery("FROM route_stops").
		WithArgs("bus-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "stop_order", "location", "departure_time",
			"fares", "seat_availability", "updated_at",
		}).
			AddRow("s1", "bus-1", 0, "Colombo", day.Add(6*time.Hour), []byte(`{"Kandy":1500,"Matale":2200}`), "{A1,A2,B1}", day).
			AddRow("s2", "bus-1", 1, "Kandy", day.Add(9*time.Hour), []byte(`{"Matale":900}`), "{A1,B1}", day).
			AddRow("s3", "bus-1", 2, "Matale", day.Add(10*time.Hour), []byte(`{}`), "{A1,A2,B1}", day))

	// bus-2 serves the segment directly and cheaper.
	mock.ExpectQuery("FROM route_stops").
		WithArgs("bus-2").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "stop_order", "location", "departure_time",
			"fares", "seat_availability", "updated_at",
		}).
			AddRow("s4", "bus-2", 0, "Colombo", day.Add(7*time.Hour), []byte(`{"Matale":1800}`), "{A1,A2,B1}", day).
			AddRow("s5", "bus-2", 1, "Matale", day.Add(11*time.Hour), []byte(`{}`), "{A1,A2,B1}", day))

	trips, err := service.SearchTrips(context.Background(), &models.SearchTripsRequest{
		Date: "2026-09-01",
		From: "Colombo",
		To:   "Matale",
	})
	require.NoError(t, err)
	require.Len(t, trips, 2)

	// Cheapest first.
	assert.Equal(t, "bus-2", trips[0].BusID)
	assert.Equal(t, int64(1800), trips[0].PriceCents)
	assert.Equal(t, "bus-1", trips[1].BusID)
	assert.Equal(t, int64(2200), trips[1].PriceCents)

	// A2 is taken at Kandy, so bus-1 cannot sell it for the segment.
	assert.Equal(t, []string{"A1", "B1"}, trips[1].AvailableSeats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTrips_SkipsRoutesNotServingSegment(t *testing.T) {
	service, mock, cleanup := setupBusTest(t)
	defer cleanup()

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM buses").
		WithArgs(day, day.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_name", "bus_number", "total_seats", "features",
			"origin", "destination", "created_at",
		}).AddRow("bus-3", "Coastal", "NB-1100", 2, "{}", "Galle", "Colombo", day))

	mock.ExpectQuery("FROM route_stops").
		WithArgs("bus-3").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "bus_id", "stop_order", "location", "departure_time",
			"fares", "seat_availability", "updated_at",
		}).
			AddRow("s6", "bus-3", 0, "Galle", day.Add(5*time.Hour), []byte(`{"Colombo":1200}`), "{A1,B1}", day).
			AddRow("s7", "bus-3", 1, "Colombo", day.Add(8*time.Hour), []byte(`{}`), "{A1,B1}", day))

	trips, err := service.SearchTrips(context.Background(), &models.SearchTripsRequest{
		Date: "2026-09-01",
		From: "Colombo",
		To:   "Matale",
	})
	require.NoError(t, err)
	assert.Empty(t, trips)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTrips_InvalidDate(t *testing.T) {
	service, mock, cleanup := setupBusTest(t)
	defer cleanup()

	_, err := service.SearchTrips(context.Background(), &models.SearchTripsRequest{
		Date: "01-09-2026",
		From: "Colombo",
		To:   "Matale",
	})
	assert.ErrorIs(t, err, ErrInvalidDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}
