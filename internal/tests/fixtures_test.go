package tests

import (
	"time"

	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/service"
)

// Points along the Tunis - Sousse coast.
var (
	tunis    = geo.Point{Lat: 36.8065, Lng: 10.1815}
	sousse   = geo.Point{Lat: 35.8256, Lng: 10.6084}
	hammamet = geo.Point{Lat: 36.4000, Lng: 10.6167}
	grombali = geo.Point{Lat: 36.5986, Lng: 10.5000}
	bouficha = geo.Point{Lat: 36.3000, Lng: 10.4500}
	sfax     = geo.Point{Lat: 34.7406, Lng: 10.7603}
)

// tripDate is a Monday.
var tripDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// testEnv bundles the mocks and services used by the service tests.
type testEnv struct {
	users     *MockUserRepository
	routes    *MockRouteRepository
	trips     *MockTripRepository
	requests  *MockRequestRepository
	places    *MockPlaceRepository
	ratings   *MockRatingRepository
	tx        *MockTransactor
	locks     *MockLockStore
	cache     *MockCacheStore
	locations *MockLocationStore
	notifier  *MockNotifier
	estimator geo.Estimator

	userService     *service.UserService
	routeService    *service.RouteService
	tripService     *service.TripService
	requestService  *service.RequestService
	matchingService *service.MatchingService
	ratingService   *service.RatingService
	trackingService *service.TrackingService
}

func newTestEnv() *testEnv {
	log := zap.NewNop()

	env := &testEnv{
		users:     NewMockUserRepository(),
		routes:    NewMockRouteRepository(),
		trips:     NewMockTripRepository(),
		requests:  NewMockRequestRepository(),
		places:    NewMockPlaceRepository(),
		ratings:   NewMockRatingRepository(),
		locks:     NewMockLockStore(),
		cache:     NewMockCacheStore(),
		locations: NewMockLocationStore(),
		notifier:  NewMockNotifier(),
		estimator: geo.NewEstimator(60),
	}
	env.tx = NewMockTransactor(env.trips, env.requests)

	env.userService = service.NewUserService(env.users, log)
	env.routeService = service.NewRouteService(env.routes, env.users, env.estimator, log)
	env.tripService = service.NewTripService(env.tx, env.trips, env.routes, env.requests, env.locks, env.cache, env.notifier, env.estimator, time.Second, log)
	env.requestService = service.NewRequestService(env.tx, env.trips, env.requests, env.locks, env.cache, env.notifier, time.Second, log)
	env.matchingService = service.NewMatchingService(env.trips, env.ratings, env.estimator, service.MatchingConfig{
		SearchRadiusKm: 10,
		MaxDetourKm:    30,
	}, log)
	env.ratingService = service.NewRatingService(env.ratings, env.trips, env.requests, log)
	env.trackingService = service.NewTrackingService(env.locations, nil, log)

	return env
}

func (e *testEnv) addUser(id string, role domain.Role) {
	e.users.AddUser(&domain.User{ID: id, Name: id, Phone: "+216-" + id, Role: role, CreatedAt: time.Now().UTC()})
}

// addDriverRoute stores an active Tunis -> Sousse driver route running on Mondays.
func (e *testEnv) addDriverRoute(id, driverID string) *domain.Route {
	route := &domain.Route{
		ID:            id,
		OwnerID:       driverID,
		Kind:          domain.RouteKindDriver,
		Start:         tunis,
		End:           sousse,
		Waypoints:     []geo.Point{hammamet},
		Days:          []time.Weekday{time.Monday, time.Wednesday},
		DepartureTime: "07:30",
		Price:         12.5,
		Seats:         3,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
	e.routes.AddRoute(route)
	return route
}

// addTrip stores a scheduled Tunis -> Sousse trip.
func (e *testEnv) addTrip(id, driverID string, seats int) *domain.Trip {
	trip := &domain.Trip{
		ID:             id,
		RouteID:        "route-" + id,
		DriverID:       driverID,
		Date:           tripDate,
		Start:          tunis,
		End:            sousse,
		DepartureTime:  "07:30",
		Price:          10,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
		Status:         domain.TripStatusScheduled,
		CreatedAt:      time.Now().UTC(),
	}
	e.trips.AddTrip(trip)
	return trip
}

// addRequest stores a request in the given status.
func (e *testEnv) addRequest(id, tripID, clientID string, seats int, status domain.RequestStatus) *domain.ClientRequest {
	req := &domain.ClientRequest{
		ID:        id,
		TripID:    tripID,
		ClientID:  clientID,
		Pickup:    grombali,
		Dropoff:   hammamet,
		Seats:     seats,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	e.requests.AddRequest(req)
	return req
}
