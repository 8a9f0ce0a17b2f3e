package repository

import (
	"context"

	"rideshare/internal/domain"
)

// PlaceRepository defines the persistence operations for saved places.
type PlaceRepository interface {
	// Create persists a new place. Returns ErrConflict if the user already
	// has a place with that label.
	Create(ctx context.Context, place *domain.SavedPlace) error

	// GetByID retrieves a place by ID.
	GetByID(ctx context.Context, id string) (*domain.SavedPlace, error)

	// ListByUser retrieves all places of a user.
	ListByUser(ctx context.Context, userID string) ([]*domain.SavedPlace, error)

	// ListByGeohashPrefixes retrieves the user's places whose geohash starts
	// with any of the prefixes.
	ListByGeohashPrefixes(ctx context.Context, userID string, prefixes []string) ([]*domain.SavedPlace, error)

	// Delete removes a place.
	Delete(ctx context.Context, id string) error
}
