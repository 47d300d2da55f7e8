package models

import (
	"errors"
	"fmt"
	"time"
)

// Bus represents one published bus run with its multi-stop route.
type Bus struct {
	ID          string      `json:"id" db:"id"`
	BusName     string      `json:"bus_name" db:"bus_name"`
	BusNumber   string      `json:"bus_number" db:"bus_number"`
	TotalSeats  int         `json:"total_seats" db:"total_seats"`
	Features    StringArray `json:"features" db:"features"`
	Origin      string      `json:"origin" db:"origin"`
	Destination string      `json:"destination" db:"destination"`
	Stops       []RouteStop `json:"stops,omitempty"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// RouteStop is one scheduled point on a route. SeatAvailability is the set of
// seat numbers still free for the leg departing this stop; Fares maps every
// later stop's location to the fare in cents.
type RouteStop struct {
	ID               string      `json:"id" db:"id"`
	BusID            string      `json:"bus_id" db:"bus_id"`
	StopOrder        int         `json:"stop_order" db:"stop_order"`
	Location         string      `json:"location" db:"location"`
	DepartureTime    time.Time   `json:"departure_time" db:"departure_time"`
	Fares            FareMap     `json:"fares" db:"fares"`
	SeatAvailability StringArray `json:"seat_availability" db:"seat_availability"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// RegisterBusRequest is the operator-facing payload for publishing a bus run.
type RegisterBusRequest struct {
	BusName          string             `json:"bus_name" binding:"required"`
	BusNumber        string             `json:"bus_number" binding:"required"`
	TotalSeats       int                `json:"total_seats" binding:"required,min=1"`
	SeatAvailability []string           `json:"seat_availability" binding:"required"`
	Features         []string           `json:"features"`
	Stops            []RegisterStopSpec `json:"stops" binding:"required"`
}

// RegisterStopSpec describes one stop in a registration request.
type RegisterStopSpec struct {
	Location      string    `json:"location" binding:"required"`
	DepartureTime time.Time `json:"departure_time" binding:"required"`
	Fares         FareMap   `json:"fares"`
}

// Validate checks the structural route invariants: at least two stops, unique
// locations, strictly increasing departure times, a complete fare table from
// every stop to every later stop, and a seat pool matching total_seats.
func (r *RegisterBusRequest) Validate() error {
	if len(r.Stops) < 2 {
		return errors.New("route must have at least two stops")
	}
	if len(r.SeatAvailability) != r.TotalSeats {
		return fmt.Errorf("seat_availability must have exactly %d entries to match total_seats", r.TotalSeats)
	}
	seen := make(map[string]struct{}, len(r.SeatAvailability))
	for _, seat := range r.SeatAvailability {
		if _, dup := seen[seat]; dup {
			return fmt.Errorf("duplicate seat number %q in seat pool", seat)
		}
		seen[seat] = struct{}{}
	}

	locations := make(map[string]struct{}, len(r.Stops))
	for i, stop := range r.Stops {
		if _, dup := locations[stop.Location]; dup {
			return fmt.Errorf("duplicate stop location %q", stop.Location)
		}
		locations[stop.Location] = struct{}{}

		if i > 0 && !stop.DepartureTime.After(r.Stops[i-1].DepartureTime) {
			return fmt.Errorf("departure time at %q must be after %q", stop.Location, r.Stops[i-1].Location)
		}

		// Every stop except the terminus needs a fare to each later stop.
		for j := i + 1; j < len(r.Stops); j++ {
			fare, ok := stop.Fares[r.Stops[j].Location]
			if !ok {
				return fmt.Errorf("stop %q has no fare defined to %q", stop.Location, r.Stops[j].Location)
			}
			if fare <= 0 {
				return fmt.Errorf("fare from %q to %q must be positive", stop.Location, r.Stops[j].Location)
			}
		}
	}
	return nil
}
