package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrInvalidDate is returned when a search date is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// ErrBusAlreadyRegistered is returned when the same bus run is published
// twice.
var ErrBusAlreadyRegistered = errors.New("bus already registered for this departure")

// BusService publishes routes and answers segment searches.
type BusService struct {
	busRepo *database.BusRepository
	logger  *logrus.Logger
}

// NewBusService creates a new BusService
func NewBusService(busRepo *database.BusRepository, logger *logrus.Logger) *BusService {
	return &BusService{busRepo: busRepo, logger: logger}
}

// RegisterBus validates and publishes a route. Every stop starts with the
// full seat pool available.
func (s *BusService) RegisterBus(ctx context.Context, req *models.RegisterBusRequest) (*models.Bus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	firstDeparture := req.Stops[0].DepartureTime
	exists, err := s.busRepo.Exists(ctx, req.BusNumber, req.Stops[0].Location, firstDeparture)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBusAlreadyRegistered
	}

	bus := &models.Bus{
		BusName:     req.BusName,
		BusNumber:   req.BusNumber,
		TotalSeats:  req.TotalSeats,
		Features:    models.StringArray(req.Features),
		Origin:      req.Stops[0].Location,
		Destination: req.Stops[len(req.Stops)-1].Location,
	}
	for _, spec := range req.Stops {
		bus.Stops = append(bus.Stops, models.RouteStop{
			Location:         spec.Location,
			DepartureTime:    spec.DepartureTime,
			Fares:            spec.Fares,
			SeatAvailability: models.StringArray(req.SeatAvailability),
		})
	}

	if err := s.busRepo.Create(ctx, bus); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":     bus.ID,
		"bus_number": bus.BusNumber,
		"stops":      len(bus.Stops),
	}).Info("Bus registered")

	return bus, nil
}

// GetBus returns a route with its stops.
func (s *BusService) GetBus(ctx context.Context, busID string) (*models.Bus, error) {
	return s.busRepo.GetByID(ctx, busID)
}

// SearchTrips returns the buses able to serve the requested segment on the
// given date, cheapest first. A bus qualifies only when both locations lie on
// its route in order, a fare is defined and at least one seat is free across
// the whole segment.
func (s *BusService) SearchTrips(ctx context.Context, req *models.SearchTripsRequest) ([]models.TripOption, error) {
	dayStart, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	buses, err := s.busRepo.SearchByDate(ctx, dayStart, dayEnd, req.Features)
	if err != nil {
		return nil, err
	}

	options := make([]models.TripOption, 0, len(buses))
	for i := range buses {
		bus := &buses[i]

		segment, err := ResolveSegment(bus.Stops, req.From, req.To)
		if err != nil {
			if models.IsValidationError(err) {
				continue
			}
			return nil, err
		}

		seats := SegmentSeatSet(bus.Stops, segment)
		if len(seats) == 0 {
			continue
		}

		boarding := bus.Stops[segment.FromIndex]
		if boarding.DepartureTime.Before(dayStart) || !boarding.DepartureTime.Before(dayEnd) {
			continue
		}

		options = append(options, models.TripOption{
			BusID:          bus.ID,
			BusName:        bus.BusName,
			BusNumber:      bus.BusNumber,
			DepartureTime:  boarding.DepartureTime,
			BoardingPoint:  req.From,
			DroppingPoint:  req.To,
			Features:       bus.Features,
			AvailableSeats: seats,
			PriceCents:     segment.PriceCents,
		})
	}

	sort.Slice(options, func(i, j int) bool {
		if options[i].PriceCents != options[j].PriceCents {
			return options[i].PriceCents < options[j].PriceCents
		}
		return options[i].DepartureTime.Before(options[j].DepartureTime)
	})
	return options, nil
}
