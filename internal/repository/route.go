package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// RouteFilter narrows a route listing. Zero values are ignored.
type RouteFilter struct {
	OwnerID string
	Kind    domain.RouteKind
	Active  *bool
	Day     *time.Weekday
	Limit   uint64
}

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	// Create persists a new route.
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// List retrieves routes matching the filter, newest first.
	List(ctx context.Context, filter RouteFilter) ([]*domain.Route, error)

	// SetActive toggles whether a route can produce trips.
	SetActive(ctx context.Context, id string, active bool) error
}
