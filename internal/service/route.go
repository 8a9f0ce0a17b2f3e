package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/repository"
)

// RouteService handles recurring routes.
type RouteService struct {
	routeRepo repository.RouteRepository
	userRepo  repository.UserRepository
	estimator geo.Estimator
	log       *zap.Logger
}

// NewRouteService creates a new RouteService.
func NewRouteService(
	routeRepo repository.RouteRepository,
	userRepo repository.UserRepository,
	estimator geo.Estimator,
	log *zap.Logger,
) *RouteService {
	return &RouteService{
		routeRepo: routeRepo,
		userRepo:  userRepo,
		estimator: estimator,
		log:       log.Named("route"),
	}
}

// CreateRouteRequest contains the parameters for creating a route.
type CreateRouteRequest struct {
	OwnerID       string
	Kind          domain.RouteKind
	Start         geo.Point
	End           geo.Point
	StartLabel    string
	EndLabel      string
	Waypoints     []geo.Point
	Days          []time.Weekday
	DepartureTime string
	Price         float64
	Seats         int
}

// CreateRoute validates and stores a new active route.
func (s *RouteService) CreateRoute(ctx context.Context, req CreateRouteRequest) (*domain.Route, error) {
	days, err := validateRoute(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	route := &domain.Route{
		ID:            uuid.New().String(),
		OwnerID:       req.OwnerID,
		Kind:          req.Kind,
		Start:         req.Start,
		End:           req.End,
		StartLabel:    strings.TrimSpace(req.StartLabel),
		EndLabel:      strings.TrimSpace(req.EndLabel),
		Waypoints:     req.Waypoints,
		Days:          days,
		DepartureTime: req.DepartureTime,
		Price:         req.Price,
		Seats:         req.Seats,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}

	s.log.Info("route created",
		zap.String("route_id", route.ID),
		zap.String("owner_id", route.OwnerID),
		zap.String("kind", string(route.Kind)),
	)
	return route, nil
}

// validateRoute checks a create request and returns its sorted, distinct days.
func validateRoute(req CreateRouteRequest) ([]time.Weekday, error) {
	if req.OwnerID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Kind != domain.RouteKindDriver && req.Kind != domain.RouteKindClient {
		return nil, ErrInvalidRouteKind
	}
	if !req.Start.Valid() || !req.End.Valid() {
		return nil, ErrInvalidLocation
	}
	if req.Start == req.End {
		return nil, ErrSamePoints
	}
	for _, wp := range req.Waypoints {
		if !wp.Valid() {
			return nil, ErrInvalidLocation
		}
	}

	if len(req.Days) == 0 {
		return nil, ErrNoDaysSelected
	}
	for _, d := range req.Days {
		if d < time.Sunday || d > time.Saturday {
			return nil, ErrInvalidDay
		}
	}
	days := slices.Clone(req.Days)
	slices.Sort(days)
	days = slices.Compact(days)

	if _, err := time.Parse(domain.DepartureTimeLayout, req.DepartureTime); err != nil {
		return nil, ErrInvalidDepartureTime
	}

	if req.Seats < 1 {
		return nil, ErrInvalidSeats
	}
	switch req.Kind {
	case domain.RouteKindDriver:
		if req.Price <= 0 {
			return nil, ErrInvalidPrice
		}
	case domain.RouteKindClient:
		if req.Price < 0 {
			return nil, ErrInvalidPrice
		}
	}

	return days, nil
}

// GetRoute retrieves a route by ID.
func (s *RouteService) GetRoute(ctx context.Context, id string) (*domain.Route, error) {
	return s.routeRepo.GetByID(ctx, id)
}

// ListRoutes retrieves routes matching the filter.
func (s *RouteService) ListRoutes(ctx context.Context, filter repository.RouteFilter) ([]*domain.Route, error) {
	return s.routeRepo.List(ctx, filter)
}

// DeactivateRoute stops a route from producing new trips. Only the owner may
// deactivate it.
func (s *RouteService) DeactivateRoute(ctx context.Context, routeID, callerID string) (*domain.Route, error) {
	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.OwnerID != callerID {
		return nil, ErrForbidden
	}
	if !route.Active {
		return route, nil
	}

	if err := s.routeRepo.SetActive(ctx, routeID, false); err != nil {
		return nil, err
	}
	route.Active = false

	s.log.Info("route deactivated", zap.String("route_id", routeID))
	return route, nil
}

// EstimateRoute returns distance and duration of the route's path.
func (s *RouteService) EstimateRoute(ctx context.Context, routeID string) (geo.Estimate, error) {
	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return geo.Estimate{}, err
	}
	return s.estimator.Estimate(route.Path()), nil
}
