package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// TripFilter narrows a trip listing. Zero values are ignored.
type TripFilter struct {
	DriverID string
	Status   domain.TripStatus
	Date     *time.Time
	MinSeats int
	Limit    uint64
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip. Returns ErrConflict if the route already
	// has a trip on that date.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// List retrieves trips matching the filter, by date then departure time.
	List(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// Update writes status and timestamps of a trip still in status from.
	// Returns ErrConflict when another writer changed the status first.
	Update(ctx context.Context, trip *domain.Trip, from domain.TripStatus) error

	// ReserveSeats takes n free seats of a SCHEDULED trip. Returns
	// ErrConflict when fewer are left or the trip is no longer scheduled.
	ReserveSeats(ctx context.Context, id string, n int) error

	// ReleaseSeats gives n seats back, never above the trip's total.
	ReleaseSeats(ctx context.Context, id string, n int) error
}
