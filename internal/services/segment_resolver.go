package services

import (
	"github.com/routelink/bus-booking-backend/internal/models"
)

// SegmentRange is a resolved (from, to) pair on a route: the half-open stop
// index range [FromIndex, ToIndex) a seat must be held on, and the per-seat
// fare for the segment.
type SegmentRange struct {
	FromIndex  int
	ToIndex    int
	PriceCents int64
}

// ResolveSegment locates from and to in the stop sequence and returns the
// range of stops a reservation must hold. Read-only; safe to call without
// coordination.
func ResolveSegment(stops []models.RouteStop, from, to string) (*SegmentRange, error) {
	fromIndex, toIndex := -1, -1
	for i, stop := range stops {
		if fromIndex == -1 && stop.Location == from {
			fromIndex = i
		}
		if toIndex == -1 && stop.Location == to {
			toIndex = i
		}
	}

	if fromIndex == -1 || toIndex == -1 || fromIndex >= toIndex {
		return nil, &models.InvalidSegmentError{From: from, To: to}
	}

	price, ok := stops[fromIndex].Fares[to]
	if !ok || price <= 0 {
		return nil, &models.NoFareDefinedError{From: from, To: to}
	}

	return &SegmentRange{
		FromIndex:  fromIndex,
		ToIndex:    toIndex,
		PriceCents: price,
	}, nil
}

// SegmentSeatSet computes the seats available across the entire range: a
// seat can be sold for the segment only if it is free at every stop the
// traveler rides through (the dropping stop itself is not included).
func SegmentSeatSet(stops []models.RouteStop, seg *SegmentRange) []string {
	if seg.FromIndex >= len(stops) {
		return nil
	}
	available := make([]string, 0, len(stops[seg.FromIndex].SeatAvailability))
	for _, seat := range stops[seg.FromIndex].SeatAvailability {
		free := true
		for i := seg.FromIndex + 1; i < seg.ToIndex; i++ {
			if !stops[i].SeatAvailability.Contains(seat) {
				free = false
				break
			}
		}
		if free {
			available = append(available, seat)
		}
	}
	return available
}
