package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var requestColumns = []string{
	"id", "trip_id", "client_id",
	"pickup_lat", "pickup_lng", "dropoff_lat", "dropoff_lng",
	"pickup_label", "dropoff_label",
	"seats", "status", "detour_km", "price", "created_at", "updated_at",
}

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepository creates a new PostgreSQL request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{q: db}
}

// NewRequestRepositoryWithTx creates a request repository using a transaction.
func NewRequestRepositoryWithTx(tx *sql.Tx) *RequestRepository {
	return &RequestRepository{q: tx}
}

// Create persists a new request.
func (r *RequestRepository) Create(ctx context.Context, req *domain.ClientRequest) error {
	query, args, err := psql.Insert("client_requests").
		Columns(requestColumns...).
		Values(
			req.ID, req.TripID, req.ClientID,
			req.Pickup.Lat, req.Pickup.Lng, req.Dropoff.Lat, req.Dropoff.Lng,
			req.PickupLabel, req.DropoffLabel,
			req.Seats, req.Status, req.DetourKm, req.Price, req.CreatedAt, req.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build request insert: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.ClientRequest, error) {
	query, args, err := psql.Select(requestColumns...).
		From("client_requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request select: %w", err)
	}

	req, err := scanRequest(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return req, err
}

// List retrieves requests matching the filter, oldest first.
func (r *RequestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.ClientRequest, error) {
	builder := psql.Select(requestColumns...).
		From("client_requests").
		OrderBy("created_at", "id")

	if filter.TripID != "" {
		builder = builder.Where(squirrel.Eq{"trip_id": filter.TripID})
	}
	if filter.ClientID != "" {
		builder = builder.Where(squirrel.Eq{"client_id": filter.ClientID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(squirrel.Eq{"status": statuses})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request list: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.ClientRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus moves a request from one status to another, only if it is still in from.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	query := `UPDATE client_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.q.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConflict)
}

func scanRequest(row rowScanner) (*domain.ClientRequest, error) {
	var req domain.ClientRequest
	err := row.Scan(
		&req.ID, &req.TripID, &req.ClientID,
		&req.Pickup.Lat, &req.Pickup.Lng, &req.Dropoff.Lat, &req.Dropoff.Lng,
		&req.PickupLabel, &req.DropoffLabel,
		&req.Seats, &req.Status, &req.DetourKm, &req.Price, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Ensure RequestRepository implements repository.RequestRepository.
var _ repository.RequestRepository = (*RequestRepository)(nil)
