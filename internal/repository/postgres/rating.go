package postgres

import (
	"context"
	"database/sql"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

// Create persists a rating.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, trip_id, rater_id, ratee_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.TripID,
		rating.RaterID,
		rating.RateeID,
		rating.Score,
		rating.Comment,
		rating.CreatedAt,
	)
	if isConstraintError(err) {
		return repository.ErrConflict
	}
	return err
}

// ListByRatee retrieves the ratings a user received, newest first.
func (r *RatingRepository) ListByRatee(ctx context.Context, rateeID string) ([]*domain.Rating, error) {
	query := `
		SELECT id, trip_id, rater_id, ratee_id, score, comment, created_at
		FROM ratings
		WHERE ratee_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, rateeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.TripID,
			&rating.RaterID,
			&rating.RateeID,
			&rating.Score,
			&rating.Comment,
			&rating.CreatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, &rating)
	}
	return ratings, rows.Err()
}

// Summary returns count and average score of the ratings a user received.
func (r *RatingRepository) Summary(ctx context.Context, rateeID string) (*domain.RatingSummary, error) {
	query := `SELECT COUNT(*), COALESCE(AVG(score), 0) FROM ratings WHERE ratee_id = $1`

	summary := domain.RatingSummary{UserID: rateeID}
	if err := r.q.QueryRowContext(ctx, query, rateeID).Scan(&summary.Count, &summary.Average); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Ensure RatingRepository implements repository.RatingRepository.
var _ repository.RatingRepository = (*RatingRepository)(nil)
