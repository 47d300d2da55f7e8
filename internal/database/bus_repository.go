package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/models"
)

// BusRepository handles database operations for buses and their route stops.
type BusRepository struct {
	db *sqlx.DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db *sqlx.DB) *BusRepository {
	return &BusRepository{db: db}
}

// Exists reports whether a bus with the same number, origin and first
// departure is already published.
func (r *BusRepository) Exists(ctx context.Context, busNumber, origin string, firstDeparture time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM buses b
			JOIN route_stops s ON s.bus_id = b.id AND s.stop_order = 0
			WHERE b.bus_number = $1 AND b.origin = $2 AND s.departure_time = $3
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, busNumber, origin, firstDeparture).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate bus: %w", err)
	}
	return exists, nil
}

// Create inserts a bus and all of its route stops in one transaction. Every
// stop starts with the full seat pool available.
func (r *BusRepository) Create(ctx context.Context, bus *models.Bus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if bus.ID == "" {
		bus.ID = uuid.New().String()
	}

	busQuery := `
		INSERT INTO buses (id, bus_name, bus_number, total_seats, features, origin, destination)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = tx.QueryRowContext(ctx, busQuery,
		bus.ID, bus.BusName, bus.BusNumber, bus.TotalSeats,
		bus.Features, bus.Origin, bus.Destination,
	).Scan(&bus.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bus: %w", err)
	}

	stopQuery := `
		INSERT INTO route_stops (id, bus_id, stop_order, location, departure_time, fares, seat_availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING updated_at`

	for i := range bus.Stops {
		stop := &bus.Stops[i]
		if stop.ID == "" {
			stop.ID = uuid.New().String()
		}
		stop.BusID = bus.ID
		stop.StopOrder = i

		err = tx.QueryRowContext(ctx, stopQuery,
			stop.ID, stop.BusID, stop.StopOrder, stop.Location,
			stop.DepartureTime, stop.Fares, stop.SeatAvailability,
		).Scan(&stop.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create stop %s: %w", stop.Location, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bus creation: %w", err)
	}
	return nil
}

// GetByID retrieves a bus with its stops ordered by stop_order.
func (r *BusRepository) GetByID(ctx context.Context, busID string) (*models.Bus, error) {
	var bus models.Bus

	busQuery := `
		SELECT id, bus_name, bus_number, total_seats, features, origin, destination, created_at
		FROM buses
		WHERE id = $1`

	err := r.db.GetContext(ctx, &bus, busQuery, busID)
	if err == sql.ErrNoRows {
		return nil, models.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}

	stops, err := r.getStops(ctx, busID)
	if err != nil {
		return nil, err
	}
	bus.Stops = stops
	return &bus, nil
}

// SearchByDate returns every bus with a stop departing inside the given day,
// optionally filtered to buses carrying all requested features. Stops are
// loaded so the caller can resolve segments.
func (r *BusRepository) SearchByDate(ctx context.Context, dayStart, dayEnd time.Time, features []string) ([]models.Bus, error) {
	query := `
		SELECT DISTINCT b.id, b.bus_name, b.bus_number, b.total_seats, b.features,
		       b.origin, b.destination, b.created_at
		FROM buses b
		JOIN route_stops s ON s.bus_id = b.id
		WHERE s.departure_time >= $1 AND s.departure_time < $2`
	args := []interface{}{dayStart, dayEnd}

	if len(features) > 0 {
		query += ` AND b.features @> $3`
		args = append(args, models.StringArray(features))
	}

	var buses []models.Bus
	if err := r.db.SelectContext(ctx, &buses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search buses: %w", err)
	}

	for i := range buses {
		stops, err := r.getStops(ctx, buses[i].ID)
		if err != nil {
			return nil, err
		}
		buses[i].Stops = stops
	}
	return buses, nil
}

func (r *BusRepository) getStops(ctx context.Context, busID string) ([]models.RouteStop, error) {
	query := `
		SELECT id, bus_id, stop_order, location, departure_time, fares, seat_availability, updated_at
		FROM route_stops
		WHERE bus_id = $1
		ORDER BY stop_order`

	var stops []models.RouteStop
	if err := r.db.SelectContext(ctx, &stops, query, busID); err != nil {
		return nil, fmt.Errorf("failed to get route stops: %w", err)
	}
	return stops, nil
}
