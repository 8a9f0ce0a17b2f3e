package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// RequestService handles passenger seat requests on trips.
type RequestService struct {
	tx          repository.Transactor
	tripRepo    repository.TripRepository
	requestRepo repository.RequestRepository
	locker      tripLocker
	cache       redis.ItineraryCacheInterface
	notifier    Notifier
	log         *zap.Logger
}

// NewRequestService creates a new RequestService. cache and notifier may be nil.
func NewRequestService(
	tx repository.Transactor,
	tripRepo repository.TripRepository,
	requestRepo repository.RequestRepository,
	lockStore redis.LockStoreInterface,
	cache redis.ItineraryCacheInterface,
	notifier Notifier,
	lockTTL time.Duration,
	log *zap.Logger,
) *RequestService {
	log = log.Named("request")
	return &RequestService{
		tx:          tx,
		tripRepo:    tripRepo,
		requestRepo: requestRepo,
		locker:      newTripLocker(lockStore, lockTTL, log),
		cache:       cache,
		notifier:    notifier,
		log:         log,
	}
}

// CreateClientRequest contains the parameters for asking seats on a trip.
type CreateClientRequest struct {
	TripID       string
	ClientID     string
	Pickup       geo.Point
	Dropoff      geo.Point
	PickupLabel  string
	DropoffLabel string
	Seats        int
}

// CreateRequest stores a PENDING request for seats on a scheduled trip.
func (s *RequestService) CreateRequest(ctx context.Context, req CreateClientRequest) (*domain.ClientRequest, error) {
	if req.ClientID == "" {
		return nil, ErrInvalidUserID
	}
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		return nil, ErrInvalidLocation
	}
	if req.Pickup == req.Dropoff {
		return nil, ErrSamePoints
	}
	if req.Seats < 1 {
		return nil, ErrInvalidSeats
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusScheduled {
		return nil, ErrTripNotScheduled
	}
	if trip.DriverID == req.ClientID {
		return nil, ErrOwnTrip
	}
	if req.Seats > trip.SeatsAvailable {
		return nil, ErrNotEnoughSeats
	}

	open, err := s.requestRepo.List(ctx, repository.RequestFilter{
		TripID:   trip.ID,
		ClientID: req.ClientID,
		Statuses: []domain.RequestStatus{domain.RequestStatusPending, domain.RequestStatusAccepted},
	})
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, ErrDuplicateRequest
	}

	now := time.Now().UTC()
	request := &domain.ClientRequest{
		ID:           uuid.New().String(),
		TripID:       trip.ID,
		ClientID:     req.ClientID,
		Pickup:       req.Pickup,
		Dropoff:      req.Dropoff,
		PickupLabel:  strings.TrimSpace(req.PickupLabel),
		DropoffLabel: strings.TrimSpace(req.DropoffLabel),
		Seats:        req.Seats,
		Status:       domain.RequestStatusPending,
		DetourKm:     geo.InsertionDetourKm(trip.Path(), req.Pickup, req.Dropoff),
		Price:        trip.Price * float64(req.Seats),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.log.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("trip_id", trip.ID),
		zap.Int("seats", request.Seats),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyRequestCreated(ctx, trip, request); err != nil {
			s.log.Warn("request notification failed", zap.String("request_id", request.ID), zap.Error(err))
		}
	}

	return request, nil
}

// AcceptRequest reserves the request's seats on the trip. Only the trip's
// driver may accept, and only while the request is PENDING.
func (s *RequestService) AcceptRequest(ctx context.Context, requestID, callerID string) (*domain.ClientRequest, error) {
	request, trip, err := s.loadForDriver(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.RequestStatusPending {
		return nil, ErrRequestNotPending
	}
	if trip.Status != domain.TripStatusScheduled {
		return nil, ErrTripNotScheduled
	}

	err = s.locker.run(ctx, trip.ID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			err := repos.Requests().UpdateStatus(ctx, request.ID, domain.RequestStatusPending, domain.RequestStatusAccepted)
			if errors.Is(err, repository.ErrConflict) {
				return ErrRequestNotPending
			}
			if err != nil {
				return err
			}

			err = repos.Trips().ReserveSeats(ctx, trip.ID, request.Seats)
			if !errors.Is(err, repository.ErrConflict) {
				return err
			}
			current, err := repos.Trips().GetByID(ctx, trip.ID)
			if err != nil {
				return err
			}
			if current.Status != domain.TripStatusScheduled {
				return ErrTripNotScheduled
			}
			return ErrNotEnoughSeats
		})
	})
	if err != nil {
		return nil, err
	}

	request.Status = domain.RequestStatusAccepted
	request.UpdatedAt = time.Now().UTC()
	s.invalidateItinerary(ctx, trip.ID)

	s.log.Info("request accepted", zap.String("request_id", request.ID), zap.String("trip_id", trip.ID))

	if s.notifier != nil {
		if err := s.notifier.NotifyRequestAccepted(ctx, request); err != nil {
			s.log.Warn("request notification failed", zap.String("request_id", request.ID), zap.Error(err))
		}
	}

	return request, nil
}

// RejectRequest declines a PENDING request. Only the trip's driver may reject.
func (s *RequestService) RejectRequest(ctx context.Context, requestID, callerID string) (*domain.ClientRequest, error) {
	request, trip, err := s.loadForDriver(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.RequestStatusPending {
		return nil, ErrRequestNotPending
	}

	err = s.locker.run(ctx, trip.ID, func() error {
		err := s.requestRepo.UpdateStatus(ctx, request.ID, domain.RequestStatusPending, domain.RequestStatusRejected)
		if errors.Is(err, repository.ErrConflict) {
			return ErrRequestNotPending
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	request.Status = domain.RequestStatusRejected
	request.UpdatedAt = time.Now().UTC()

	s.log.Info("request rejected", zap.String("request_id", request.ID))

	if s.notifier != nil {
		if err := s.notifier.NotifyRequestRejected(ctx, request); err != nil {
			s.log.Warn("request notification failed", zap.String("request_id", request.ID), zap.Error(err))
		}
	}

	return request, nil
}

// CancelRequest withdraws an open request. Accepted seats go back to the trip.
// Only the requesting client may cancel.
func (s *RequestService) CancelRequest(ctx context.Context, requestID, callerID string) (*domain.ClientRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != callerID {
		return nil, ErrForbidden
	}
	if !request.Status.Open() {
		return nil, ErrRequestNotOpen
	}

	trip, err := s.tripRepo.GetByID(ctx, request.TripID)
	if err != nil {
		return nil, err
	}

	released := false
	err = s.locker.run(ctx, trip.ID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			current, err := repos.Requests().GetByID(ctx, request.ID)
			if err != nil {
				return err
			}
			if !current.Status.Open() {
				return ErrRequestNotOpen
			}

			err = repos.Requests().UpdateStatus(ctx, request.ID, current.Status, domain.RequestStatusCancelled)
			if errors.Is(err, repository.ErrConflict) {
				return ErrRequestNotOpen
			}
			if err != nil {
				return err
			}

			if current.Status != domain.RequestStatusAccepted {
				return nil
			}
			released = true
			return repos.Trips().ReleaseSeats(ctx, trip.ID, request.Seats)
		})
	})
	if err != nil {
		return nil, err
	}
	if released {
		s.invalidateItinerary(ctx, trip.ID)
	}

	request.Status = domain.RequestStatusCancelled
	request.UpdatedAt = time.Now().UTC()

	s.log.Info("request cancelled", zap.String("request_id", request.ID))

	if s.notifier != nil {
		if err := s.notifier.NotifyRequestCancelled(ctx, trip, request); err != nil {
			s.log.Warn("request notification failed", zap.String("request_id", request.ID), zap.Error(err))
		}
	}

	return request, nil
}

// ListTripRequests lists the requests of a trip for its driver.
func (s *RequestService) ListTripRequests(ctx context.Context, tripID, callerID string, status domain.RequestStatus) ([]*domain.ClientRequest, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != callerID {
		return nil, ErrForbidden
	}

	filter := repository.RequestFilter{TripID: tripID}
	if status != "" {
		filter.Statuses = []domain.RequestStatus{status}
	}
	return s.requestRepo.List(ctx, filter)
}

// ListClientRequests lists the caller's own requests.
func (s *RequestService) ListClientRequests(ctx context.Context, clientID string, status domain.RequestStatus) ([]*domain.ClientRequest, error) {
	if clientID == "" {
		return nil, ErrInvalidUserID
	}

	filter := repository.RequestFilter{ClientID: clientID}
	if status != "" {
		filter.Statuses = []domain.RequestStatus{status}
	}
	return s.requestRepo.List(ctx, filter)
}

func (s *RequestService) loadForDriver(ctx context.Context, requestID, callerID string) (*domain.ClientRequest, *domain.Trip, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	trip, err := s.tripRepo.GetByID(ctx, request.TripID)
	if err != nil {
		return nil, nil, err
	}
	if trip.DriverID != callerID {
		return nil, nil, ErrForbidden
	}

	return request, trip, nil
}

func (s *RequestService) invalidateItinerary(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItinerary(ctx, tripID); err != nil {
		s.log.Warn("itinerary cache invalidation failed", zap.String("trip_id", tripID), zap.Error(err))
	}
}
