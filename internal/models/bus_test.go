package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterRequest() *RegisterBusRequest {
	base := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	return &RegisterBusRequest{
		BusName:          "Colombo Express",
		BusNumber:        "NB-4521",
		TotalSeats:       3,
		SeatAvailability: []string{"A1", "A2", "B1"},
		Features:         []string{"AC", "WiFi"},
		Stops: []RegisterStopSpec{
			{
				Location:      "Colombo",
				DepartureTime: base,
				Fares:         FareMap{"Kandy": 1500, "Matale": 2200},
			},
			{
				Location:      "Kandy",
				DepartureTime: base.Add(3 * time.Hour),
				Fares:         FareMap{"Matale": 900},
			},
			{
				Location:      "Matale",
				DepartureTime: base.Add(4 * time.Hour),
			},
		},
	}
}

func TestRegisterBusRequestValidate_OK(t *testing.T) {
	require.NoError(t, validRegisterRequest().Validate())
}

func TestRegisterBusRequestValidate_TooFewStops(t *testing.T) {
	req := validRegisterRequest()
	req.Stops = req.Stops[:1]

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two stops")
}

func TestRegisterBusRequestValidate_SeatPoolMismatch(t *testing.T) {
	req := validRegisterRequest()
	req.TotalSeats = 4

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_seats")
}

func TestRegisterBusRequestValidate_DuplicateSeat(t *testing.T) {
	req := validRegisterRequest()
	req.SeatAvailability = []string{"A1", "A1", "B1"}

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate seat")
}

func TestRegisterBusRequestValidate_DuplicateLocation(t *testing.T) {
	req := validRegisterRequest()
	req.Stops[2].Location = "Colombo"

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate stop")
}

func TestRegisterBusRequestValidate_NonIncreasingDepartures(t *testing.T) {
	req := validRegisterRequest()
	req.Stops[1].DepartureTime = req.Stops[0].DepartureTime

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be after")
}

func TestRegisterBusRequestValidate_MissingFare(t *testing.T) {
	req := validRegisterRequest()
	delete(req.Stops[0].Fares, "Matale")

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fare defined")
}

func TestRegisterBusRequestValidate_NonPositiveFare(t *testing.T) {
	req := validRegisterRequest()
	req.Stops[1].Fares["Matale"] = 0

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}
