package models

import "time"

// SearchTripsRequest finds buses serving a (from, to) segment on a date.
type SearchTripsRequest struct {
	Date     string   `json:"date" binding:"required"`
	From     string   `json:"from" binding:"required"`
	To       string   `json:"to" binding:"required"`
	Features []string `json:"features"`
}

// TripOption is one bookable bus for the requested segment, priced for that
// segment and carrying the boarding stop's current availability.
type TripOption struct {
	BusID          string    `json:"bus_id"`
	BusName        string    `json:"bus_name"`
	BusNumber      string    `json:"bus_number"`
	DepartureTime  time.Time `json:"departure_time"`
	BoardingPoint  string    `json:"boarding_point"`
	DroppingPoint  string    `json:"dropping_point"`
	Features       []string  `json:"features"`
	AvailableSeats []string  `json:"available_seats"`
	PriceCents     int64     `json:"price_cents"`
}
