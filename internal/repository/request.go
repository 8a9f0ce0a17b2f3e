package repository

import (
	"context"

	"rideshare/internal/domain"
)

// RequestFilter narrows a request listing. Zero values are ignored.
type RequestFilter struct {
	TripID   string
	ClientID string
	Statuses []domain.RequestStatus
}

// RequestRepository defines the persistence operations for client requests.
type RequestRepository interface {
	// Create persists a new request.
	Create(ctx context.Context, req *domain.ClientRequest) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.ClientRequest, error)

	// List retrieves requests matching the filter, oldest first.
	List(ctx context.Context, filter RequestFilter) ([]*domain.ClientRequest, error)

	// UpdateStatus moves a request from status from to status to. Returns
	// ErrConflict when the request is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) error
}
