package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// TripService handles trip scheduling, lifecycle and itineraries.
type TripService struct {
	tx          repository.Transactor
	tripRepo    repository.TripRepository
	routeRepo   repository.RouteRepository
	requestRepo repository.RequestRepository
	locker      tripLocker
	cache       redis.ItineraryCacheInterface
	notifier    Notifier
	estimator   geo.Estimator
	log         *zap.Logger
}

// NewTripService creates a new TripService. cache and notifier may be nil.
func NewTripService(
	tx repository.Transactor,
	tripRepo repository.TripRepository,
	routeRepo repository.RouteRepository,
	requestRepo repository.RequestRepository,
	lockStore redis.LockStoreInterface,
	cache redis.ItineraryCacheInterface,
	notifier Notifier,
	estimator geo.Estimator,
	lockTTL time.Duration,
	log *zap.Logger,
) *TripService {
	log = log.Named("trip")
	return &TripService{
		tx:          tx,
		tripRepo:    tripRepo,
		routeRepo:   routeRepo,
		requestRepo: requestRepo,
		locker:      newTripLocker(lockStore, lockTTL, log),
		cache:       cache,
		notifier:    notifier,
		estimator:   estimator,
		log:         log,
	}
}

// Itinerary is the ordered stop sequence of a trip with its estimate.
type Itinerary struct {
	TripID          string      `json:"trip_id"`
	Stops           []geo.Stop  `json:"stops"`
	Polyline        []geo.Point `json:"polyline"`
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes float64     `json:"duration_minutes"`
}

// CreateTripRequest contains the parameters for scheduling a trip.
type CreateTripRequest struct {
	RouteID  string
	DriverID string
	Date     time.Time
}

// CreateTrip schedules one run of a driver route on a date.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Date.IsZero() {
		return nil, ErrInvalidDate
	}

	route, err := s.routeRepo.GetByID(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}

	if route.OwnerID != req.DriverID {
		return nil, ErrForbidden
	}
	if route.Kind != domain.RouteKindDriver {
		return nil, ErrNotDriverRoute
	}
	if !route.Active {
		return nil, ErrRouteInactive
	}

	date := domain.TruncateDate(req.Date)
	if !route.RunsOn(date.Weekday()) {
		return nil, ErrDayNotScheduled
	}

	trip := &domain.Trip{
		ID:             uuid.New().String(),
		RouteID:        route.ID,
		DriverID:       route.OwnerID,
		Date:           date,
		Start:          route.Start,
		End:            route.End,
		Waypoints:      route.Waypoints,
		DepartureTime:  route.DepartureTime,
		Price:          route.Price,
		SeatsTotal:     route.Seats,
		SeatsAvailable: route.Seats,
		Status:         domain.TripStatusScheduled,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTripExists
		}
		return nil, err
	}

	s.log.Info("trip scheduled",
		zap.String("trip_id", trip.ID),
		zap.String("route_id", route.ID),
		zap.String("date", date.Format(domain.DateLayout)),
	)
	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.tripRepo.GetByID(ctx, tripID)
}

// ListTrips retrieves trips matching the filter.
func (s *TripService) ListTrips(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	return s.tripRepo.List(ctx, filter)
}

// StartTrip moves a scheduled trip to STARTED.
func (s *TripService) StartTrip(ctx context.Context, tripID, callerID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, callerID, domain.TripStatusStarted)
}

// CompleteTrip moves a started trip to COMPLETED.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, callerID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, callerID, domain.TripStatusCompleted)
}

// CancelTrip cancels a trip together with its open requests.
func (s *TripService) CancelTrip(ctx context.Context, tripID, callerID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, callerID, domain.TripStatusCancelled)
}

func (s *TripService) transition(ctx context.Context, tripID, callerID string, next domain.TripStatus) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.DriverID != callerID {
		return nil, ErrForbidden
	}
	if !trip.CanTransition(next) {
		return nil, ErrInvalidTripTransition
	}

	from := trip.Status
	now := time.Now().UTC()
	trip.Status = next
	switch next {
	case domain.TripStatusStarted:
		trip.StartedAt = now
	case domain.TripStatusCompleted, domain.TripStatusCancelled:
		trip.EndedAt = now
	}

	var accepted []*domain.ClientRequest
	if next == domain.TripStatusCancelled {
		accepted, err = s.cancel(ctx, trip, from)
	} else {
		accepted, err = s.requestRepo.List(ctx, repository.RequestFilter{
			TripID:   trip.ID,
			Statuses: []domain.RequestStatus{domain.RequestStatusAccepted},
		})
		if err == nil {
			err = s.tripRepo.Update(ctx, trip, from)
		}
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrInvalidTripTransition
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("trip status changed",
		zap.String("trip_id", trip.ID),
		zap.String("from", string(from)),
		zap.String("status", string(trip.Status)),
	)

	if s.notifier != nil && len(accepted) > 0 {
		clientIDs := make([]string, len(accepted))
		for i, r := range accepted {
			clientIDs[i] = r.ClientID
		}
		if err := s.notifier.NotifyTripStatus(ctx, trip, clientIDs); err != nil {
			s.log.Warn("trip notification failed", zap.String("trip_id", trip.ID), zap.Error(err))
		}
	}

	return trip, nil
}

// cancel writes the cancelled trip and cancels its open requests under the
// trip lock. It returns the requests that held seats.
func (s *TripService) cancel(ctx context.Context, trip *domain.Trip, from domain.TripStatus) ([]*domain.ClientRequest, error) {
	var accepted []*domain.ClientRequest
	err := s.locker.run(ctx, trip.ID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			if err := repos.Trips().Update(ctx, trip, from); err != nil {
				return err
			}

			open, err := repos.Requests().List(ctx, repository.RequestFilter{
				TripID:   trip.ID,
				Statuses: []domain.RequestStatus{domain.RequestStatusPending, domain.RequestStatusAccepted},
			})
			if err != nil {
				return err
			}
			for _, r := range open {
				if err := repos.Requests().UpdateStatus(ctx, r.ID, r.Status, domain.RequestStatusCancelled); err != nil {
					return err
				}
				if r.Status == domain.RequestStatusAccepted {
					accepted = append(accepted, r)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateItinerary(ctx, trip.ID)
	return accepted, nil
}

// GetItinerary orders the trip's waypoints and accepted passengers' stops
// and estimates the resulting path.
func (s *TripService) GetItinerary(ctx context.Context, tripID string) (*Itinerary, error) {
	if s.cache != nil {
		var cached Itinerary
		hit, err := s.cache.GetItinerary(ctx, tripID, &cached)
		if err != nil {
			s.log.Warn("itinerary cache read failed", zap.String("trip_id", tripID), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	accepted, err := s.requestRepo.List(ctx, repository.RequestFilter{
		TripID:   trip.ID,
		Statuses: []domain.RequestStatus{domain.RequestStatusAccepted},
	})
	if err != nil {
		return nil, err
	}

	passengers := make([]geo.Passenger, len(accepted))
	for i, r := range accepted {
		passengers[i] = geo.Passenger{RequestID: r.ID, Pickup: r.Pickup, Dropoff: r.Dropoff}
	}

	stops := geo.OrderStops(trip.Start, trip.End, trip.Waypoints, passengers)
	polyline := geo.Polyline(stops)
	estimate := s.estimator.Estimate(polyline)

	itinerary := &Itinerary{
		TripID:          trip.ID,
		Stops:           stops,
		Polyline:        polyline,
		DistanceKm:      estimate.DistanceKm,
		DurationMinutes: estimate.Minutes(),
	}

	if s.cache != nil {
		if err := s.cache.SetItinerary(ctx, trip.ID, itinerary); err != nil {
			s.log.Warn("itinerary cache write failed", zap.String("trip_id", trip.ID), zap.Error(err))
		}
	}

	return itinerary, nil
}

func (s *TripService) invalidateItinerary(ctx context.Context, tripID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItinerary(ctx, tripID); err != nil {
		s.log.Warn("itinerary cache invalidation failed", zap.String("trip_id", tripID), zap.Error(err))
	}
}
