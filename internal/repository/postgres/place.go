package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var placeColumns = []string{"id", "user_id", "label", "address", "lat", "lng", "geohash", "created_at"}

// PlaceRepository is a PostgreSQL implementation of repository.PlaceRepository.
type PlaceRepository struct {
	q Querier
}

// NewPlaceRepository creates a new PostgreSQL saved place repository.
func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{q: db}
}

// Create persists a new place.
func (r *PlaceRepository) Create(ctx context.Context, place *domain.SavedPlace) error {
	query := `
		INSERT INTO saved_places (id, user_id, label, address, lat, lng, geohash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		place.ID,
		place.UserID,
		place.Label,
		place.Address,
		place.Point.Lat,
		place.Point.Lng,
		place.Geohash,
		place.CreatedAt,
	)
	if isConstraintError(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a place by ID.
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*domain.SavedPlace, error) {
	query, args, err := psql.Select(placeColumns...).
		From("saved_places").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build place select: %w", err)
	}

	place, err := scanPlace(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return place, err
}

// ListByUser retrieves all places of a user.
func (r *PlaceRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SavedPlace, error) {
	return r.list(ctx, psql.Select(placeColumns...).
		From("saved_places").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC"))
}

// ListByGeohashPrefixes retrieves the user's places whose geohash starts
// with any of the prefixes.
func (r *PlaceRepository) ListByGeohashPrefixes(ctx context.Context, userID string, prefixes []string) ([]*domain.SavedPlace, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}

	anyPrefix := make(squirrel.Or, 0, len(prefixes))
	for _, p := range prefixes {
		anyPrefix = append(anyPrefix, squirrel.Like{"geohash": p + "%"})
	}

	return r.list(ctx, psql.Select(placeColumns...).
		From("saved_places").
		Where(squirrel.Eq{"user_id": userID}).
		Where(anyPrefix))
}

// Delete removes a place.
func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM saved_places WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

func (r *PlaceRepository) list(ctx context.Context, builder squirrel.SelectBuilder) ([]*domain.SavedPlace, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build place list: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*domain.SavedPlace
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	return places, rows.Err()
}

func scanPlace(row rowScanner) (*domain.SavedPlace, error) {
	var place domain.SavedPlace
	err := row.Scan(
		&place.ID, &place.UserID, &place.Label, &place.Address,
		&place.Point.Lat, &place.Point.Lng, &place.Geohash, &place.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &place, nil
}

// Ensure PlaceRepository implements repository.PlaceRepository.
var _ repository.PlaceRepository = (*PlaceRepository)(nil)
