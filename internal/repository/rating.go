package repository

import (
	"context"

	"rideshare/internal/domain"
)

// RatingRepository defines the persistence operations for ratings.
type RatingRepository interface {
	// Create persists a rating. Returns ErrConflict if the rater already
	// rated the ratee for that trip.
	Create(ctx context.Context, rating *domain.Rating) error

	// ListByRatee retrieves the ratings a user received, newest first.
	ListByRatee(ctx context.Context, rateeID string) ([]*domain.Rating, error)

	// Summary returns count and average score of the ratings a user received.
	Summary(ctx context.Context, rateeID string) (*domain.RatingSummary, error)
}
