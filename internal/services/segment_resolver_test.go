package services

import (
	"testing"
	"time"

	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouteStops() []models.RouteStop {
	base := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	return []models.RouteStop{
		{
			ID:               "stop-a",
			StopOrder:        0,
			Location:         "Colombo",
			DepartureTime:    base,
			Fares:            models.FareMap{"Kandy": 1500, "Matale": 2200, "Dambulla": 3000},
			SeatAvailability: models.StringArray{"A1", "A2", "B1"},
		},
		{
			ID:               "stop-b",
			StopOrder:        1,
			Location:         "Kandy",
			DepartureTime:    base.Add(3 * time.Hour),
			Fares:            models.FareMap{"Matale": 900, "Dambulla": 1700},
			SeatAvailability: models.StringArray{"A1", "B1"},
		},
		{
			ID:               "stop-c",
			StopOrder:        2,
			Location:         "Matale",
			DepartureTime:    base.Add(4 * time.Hour),
			Fares:            models.FareMap{"Dambulla": 800},
			SeatAvailability: models.StringArray{"A1", "A2", "B1"},
		},
		{
			ID:            "stop-d",
			StopOrder:     3,
			Location:      "Dambulla",
			DepartureTime: base.Add(6 * time.Hour),
		},
	}
}

func TestResolveSegment_FullRoute(t *testing.T) {
	seg, err := ResolveSegment(testRouteStops(), "Colombo", "Dambulla")
	require.NoError(t, err)
	assert.Equal(t, 0, seg.FromIndex)
	assert.Equal(t, 3, seg.ToIndex)
	assert.Equal(t, int64(3000), seg.PriceCents)
}

func TestResolveSegment_InnerSegment(t *testing.T) {
	seg, err := ResolveSegment(testRouteStops(), "Kandy", "Matale")
	require.NoError(t, err)
	assert.Equal(t, 1, seg.FromIndex)
	assert.Equal(t, 2, seg.ToIndex)
	assert.Equal(t, int64(900), seg.PriceCents)
}

func TestResolveSegment_ReversedDirection(t *testing.T) {
	_, err := ResolveSegment(testRouteStops(), "Matale", "Colombo")

	var invalid *models.InvalidSegmentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Matale", invalid.From)
}

func TestResolveSegment_SameStop(t *testing.T) {
	_, err := ResolveSegment(testRouteStops(), "Kandy", "Kandy")

	var invalid *models.InvalidSegmentError
	require.ErrorAs(t, err, &invalid)
}

func TestResolveSegment_UnknownStop(t *testing.T) {
	_, err := ResolveSegment(testRouteStops(), "Colombo", "Galle")

	var invalid *models.InvalidSegmentError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, models.IsValidationError(err))
}

func TestResolveSegment_NoFare(t *testing.T) {
	stops := testRouteStops()
	delete(stops[0].Fares, "Kandy")

	_, err := ResolveSegment(stops, "Colombo", "Kandy")

	var noFare *models.NoFareDefinedError
	require.ErrorAs(t, err, &noFare)
}

func TestSegmentSeatSet_IntersectsAcrossStops(t *testing.T) {
	stops := testRouteStops()

	// Colombo→Dambulla rides through stops 0..2; A2 is taken at Kandy.
	seg, err := ResolveSegment(stops, "Colombo", "Dambulla")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, SegmentSeatSet(stops, seg))

	// Colombo→Kandy only needs the boarding stop.
	seg, err = ResolveSegment(stops, "Colombo", "Kandy")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B1"}, SegmentSeatSet(stops, seg))
}

func TestSegmentSeatSet_NoSeatsFree(t *testing.T) {
	stops := testRouteStops()
	stops[1].SeatAvailability = nil

	seg, err := ResolveSegment(stops, "Colombo", "Matale")
	require.NoError(t, err)
	assert.Empty(t, SegmentSeatSet(stops, seg))
}
