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

var routeColumns = []string{
	"id", "owner_id", "kind",
	"start_lat", "start_lng", "end_lat", "end_lng",
	"start_label", "end_label",
	"waypoint_lats", "waypoint_lngs", "days",
	"departure_time", "price", "seats", "active", "created_at",
}

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// Create persists a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	lats, lngs := splitPoints(route.Waypoints)

	query, args, err := psql.Insert("routes").
		Columns(routeColumns...).
		Values(
			route.ID, route.OwnerID, route.Kind,
			route.Start.Lat, route.Start.Lng, route.End.Lat, route.End.Lng,
			route.StartLabel, route.EndLabel,
			pq.Array(lats), pq.Array(lngs), pq.Array(daysToInts(route.Days)),
			route.DepartureTime, route.Price, route.Seats, route.Active, route.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build route insert: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query, args, err := psql.Select(routeColumns...).
		From("routes").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build route select: %w", err)
	}

	route, err := scanRoute(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return route, err
}

// List retrieves routes matching the filter, newest first.
func (r *RouteRepository) List(ctx context.Context, filter repository.RouteFilter) ([]*domain.Route, error) {
	builder := psql.Select(routeColumns...).
		From("routes").
		OrderBy("created_at DESC").
		Limit(limitOrDefault(filter.Limit))

	if filter.OwnerID != "" {
		builder = builder.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.Kind != "" {
		builder = builder.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.Active != nil {
		builder = builder.Where(squirrel.Eq{"active": *filter.Active})
	}
	if filter.Day != nil {
		builder = builder.Where("? = ANY(days)", int64(*filter.Day))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build route list: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// SetActive toggles whether a route can produce trips.
func (r *RouteRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.q.ExecContext(ctx, `UPDATE routes SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*domain.Route, error) {
	var route domain.Route
	var lats, lngs []float64
	var days []int64

	err := row.Scan(
		&route.ID, &route.OwnerID, &route.Kind,
		&route.Start.Lat, &route.Start.Lng, &route.End.Lat, &route.End.Lng,
		&route.StartLabel, &route.EndLabel,
		pq.Array(&lats), pq.Array(&lngs), pq.Array(&days),
		&route.DepartureTime, &route.Price, &route.Seats, &route.Active, &route.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	route.Waypoints = joinPoints(lats, lngs)
	route.Days = intsToDays(days)
	return &route, nil
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
