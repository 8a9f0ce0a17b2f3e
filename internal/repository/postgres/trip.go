package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var tripColumns = []string{
	"id", "route_id", "driver_id", "trip_date",
	"start_lat", "start_lng", "end_lat", "end_lng",
	"waypoint_lats", "waypoint_lngs",
	"departure_time", "price", "seats_total", "seats_available",
	"status", "started_at", "ended_at", "created_at",
}

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	lats, lngs := splitPoints(trip.Waypoints)

	query, args, err := psql.Insert("trips").
		Columns(tripColumns...).
		Values(
			trip.ID, trip.RouteID, trip.DriverID, trip.Date.Format(domain.DateLayout),
			trip.Start.Lat, trip.Start.Lng, trip.End.Lat, trip.End.Lng,
			pq.Array(lats), pq.Array(lngs),
			trip.DepartureTime, trip.Price, trip.SeatsTotal, trip.SeatsAvailable,
			trip.Status, nullTime(trip.StartedAt), nullTime(trip.EndedAt), trip.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build trip insert: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query, args...)
	if isConstraintError(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query, args, err := psql.Select(tripColumns...).
		From("trips").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trip select: %w", err)
	}

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return trip, err
}

// List retrieves trips matching the filter, by date then departure time.
func (r *TripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	builder := psql.Select(tripColumns...).
		From("trips").
		OrderBy("trip_date", "departure_time", "id").
		Limit(limitOrDefault(filter.Limit))

	if filter.DriverID != "" {
		builder = builder.Where(squirrel.Eq{"driver_id": filter.DriverID})
	}
	if filter.Status != "" {
		builder = builder.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Date != nil {
		builder = builder.Where(squirrel.Eq{"trip_date": filter.Date.Format(domain.DateLayout)})
	}
	if filter.MinSeats > 0 {
		builder = builder.Where(squirrel.GtOrEq{"seats_available": filter.MinSeats})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trip list: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// Update writes status and timestamps of a trip still in status from.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip, from domain.TripStatus) error {
	query := `
		UPDATE trips
		SET status = $1, started_at = $2, ended_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		nullTime(trip.StartedAt),
		nullTime(trip.EndedAt),
		trip.ID,
		from,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConflict)
}

// ReserveSeats takes n free seats of a scheduled trip.
func (r *TripRepository) ReserveSeats(ctx context.Context, id string, n int) error {
	query := `
		UPDATE trips
		SET seats_available = seats_available - $1
		WHERE id = $2 AND seats_available >= $1 AND status = $3
	`

	result, err := r.q.ExecContext(ctx, query, n, id, domain.TripStatusScheduled)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConflict)
}

// ReleaseSeats gives n seats back, never above the trip's total.
func (r *TripRepository) ReleaseSeats(ctx context.Context, id string, n int) error {
	query := `
		UPDATE trips
		SET seats_available = LEAST(seats_total, seats_available + $1)
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, n, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var lats, lngs []float64
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&trip.ID, &trip.RouteID, &trip.DriverID, &trip.Date,
		&trip.Start.Lat, &trip.Start.Lng, &trip.End.Lat, &trip.End.Lng,
		pq.Array(&lats), pq.Array(&lngs),
		&trip.DepartureTime, &trip.Price, &trip.SeatsTotal, &trip.SeatsAvailable,
		&trip.Status, &startedAt, &endedAt, &trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	trip.Date = domain.TruncateDate(trip.Date)
	trip.Waypoints = joinPoints(lats, lngs)
	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		trip.EndedAt = endedAt.Time
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
