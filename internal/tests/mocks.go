package tests

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/geocode"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == user.Phone {
			return repository.ErrConflict
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	slices.SortFunc(result, func(a, b *domain.User) int { return strings.Compare(a.ID, b.ID) })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		routes: make(map[string]*domain.Route),
	}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

// GetRoute returns a stored route without copying, or nil.
func (m *MockRouteRepository) GetRoute(id string) *domain.Route {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes[id]
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *route
	m.routes[route.ID] = &copy
	return nil
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) List(ctx context.Context, filter repository.RouteFilter) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Route
	for _, r := range m.routes {
		if filter.OwnerID != "" && r.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if filter.Active != nil && r.Active != *filter.Active {
			continue
		}
		if filter.Day != nil && !r.RunsOn(*filter.Day) {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}
	slices.SortFunc(result, func(a, b *domain.Route) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return result, nil
}

func (m *MockRouteRepository) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	route, ok := m.routes[id]
	if !ok {
		return repository.ErrNotFound
	}
	route.Active = active
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters
	CreateCallCount  int32
	UpdateCallCount  int32
	ReserveCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	ListError   error

	// BeforeUpdate runs before Update applies, outside the repository lock.
	BeforeUpdate func()
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// GetTrip returns a copy of a stored trip, or nil.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil
	}
	copy := *trip
	return &copy
}

// SetStatus overwrites the status of a stored trip.
func (m *MockTripRepository) SetStatus(id string, status domain.TripStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip, ok := m.trips[id]; ok {
		trip.Status = status
	}
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

func (m *MockTripRepository) snapshot() map[string]domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.Trip, len(m.trips))
	for id, t := range m.trips {
		snap[id] = *t
	}
	return snap
}

func (m *MockTripRepository) restore(snap map[string]domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = make(map[string]*domain.Trip, len(snap))
	for id, t := range snap {
		t := t
		m.trips[id] = &t
	}
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.RouteID == trip.RouteID && t.Date.Equal(trip.Date) {
			return repository.ErrConflict
		}
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if filter.DriverID != "" && t.DriverID != filter.DriverID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Date != nil && !t.Date.Equal(*filter.Date) {
			continue
		}
		if filter.MinSeats > 0 && t.SeatsAvailable < filter.MinSeats {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	slices.SortFunc(result, func(a, b *domain.Trip) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := strings.Compare(a.DepartureTime, b.DepartureTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip, from domain.TripStatus) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if m.BeforeUpdate != nil {
		m.BeforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok || stored.Status != from {
		return repository.ErrConflict
	}
	stored.Status = trip.Status
	stored.StartedAt = trip.StartedAt
	stored.EndedAt = trip.EndedAt
	return nil
}

func (m *MockTripRepository) ReserveSeats(ctx context.Context, id string, n int) error {
	atomic.AddInt32(&m.ReserveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	if trip.Status != domain.TripStatusScheduled || trip.SeatsAvailable < n {
		return repository.ErrConflict
	}
	trip.SeatsAvailable -= n
	return nil
}

func (m *MockTripRepository) ReleaseSeats(ctx context.Context, id string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.SeatsAvailable = min(trip.SeatsTotal, trip.SeatsAvailable+n)
	return nil
}

// ──────────────────────────────────────────────
// MOCK REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRequestRepository is a mock implementation of RequestRepository.
type MockRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.ClientRequest

	// Counters
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error

	// BeforeUpdateStatus runs before UpdateStatus applies, outside the
	// repository lock.
	BeforeUpdateStatus func(id string)
}

// NewMockRequestRepository creates a new mock request repository.
func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{
		requests: make(map[string]*domain.ClientRequest),
	}
}

// AddRequest adds a request to the mock repository.
func (m *MockRequestRepository) AddRequest(req *domain.ClientRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

// GetRequest returns a copy of a stored request, or nil.
func (m *MockRequestRepository) GetRequest(id string) *domain.ClientRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil
	}
	copy := *req
	return &copy
}

// SetStatus overwrites the status of a stored request.
func (m *MockRequestRepository) SetStatus(id string, status domain.RequestStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		req.Status = status
	}
}

func (m *MockRequestRepository) snapshot() map[string]domain.ClientRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]domain.ClientRequest, len(m.requests))
	for id, r := range m.requests {
		snap[id] = *r
	}
	return snap
}

func (m *MockRequestRepository) restore(snap map[string]domain.ClientRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]*domain.ClientRequest, len(snap))
	for id, r := range snap {
		r := r
		m.requests[id] = &r
	}
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.ClientRequest) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *req
	m.requests[req.ID] = &copy
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.ClientRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *req
	return &copy, nil
}

func (m *MockRequestRepository) List(ctx context.Context, filter repository.RequestFilter) ([]*domain.ClientRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ClientRequest
	for _, r := range m.requests {
		if filter.TripID != "" && r.TripID != filter.TripID {
			continue
		}
		if filter.ClientID != "" && r.ClientID != filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, r.Status) {
			continue
		}
		copy := *r
		result = append(result, &copy)
	}
	slices.SortFunc(result, func(a, b *domain.ClientRequest) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	if m.BeforeUpdateStatus != nil {
		m.BeforeUpdateStatus(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != from {
		return repository.ErrConflict
	}
	req.Status = to
	req.UpdatedAt = time.Now().UTC()
	return nil
}

// ──────────────────────────────────────────────
// MOCK PLACE REPOSITORY
// ──────────────────────────────────────────────

// MockPlaceRepository is a mock implementation of PlaceRepository.
type MockPlaceRepository struct {
	mu     sync.RWMutex
	places map[string]*domain.SavedPlace

	// Counters
	PrefixQueryCallCount int32

	// Last prefixes passed to ListByGeohashPrefixes.
	LastPrefixes []string
}

// NewMockPlaceRepository creates a new mock place repository.
func NewMockPlaceRepository() *MockPlaceRepository {
	return &MockPlaceRepository{
		places: make(map[string]*domain.SavedPlace),
	}
}

// AddPlace adds a place to the mock repository.
func (m *MockPlaceRepository) AddPlace(place *domain.SavedPlace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places[place.ID] = place
}

// CountPlaces returns the number of places.
func (m *MockPlaceRepository) CountPlaces() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.places)
}

func (m *MockPlaceRepository) Create(ctx context.Context, place *domain.SavedPlace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.places {
		if p.UserID == place.UserID && p.Label == place.Label {
			return repository.ErrConflict
		}
	}
	copy := *place
	m.places[place.ID] = &copy
	return nil
}

func (m *MockPlaceRepository) GetByID(ctx context.Context, id string) (*domain.SavedPlace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	place, ok := m.places[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *place
	return &copy, nil
}

func (m *MockPlaceRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SavedPlace, error) {
	return m.list(userID, nil), nil
}

func (m *MockPlaceRepository) ListByGeohashPrefixes(ctx context.Context, userID string, prefixes []string) ([]*domain.SavedPlace, error) {
	atomic.AddInt32(&m.PrefixQueryCallCount, 1)
	m.mu.Lock()
	m.LastPrefixes = slices.Clone(prefixes)
	m.mu.Unlock()

	return m.list(userID, func(p *domain.SavedPlace) bool {
		return slices.ContainsFunc(prefixes, func(prefix string) bool {
			return strings.HasPrefix(p.Geohash, prefix)
		})
	}), nil
}

func (m *MockPlaceRepository) list(userID string, keep func(*domain.SavedPlace) bool) []*domain.SavedPlace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SavedPlace
	for _, p := range m.places {
		if p.UserID != userID || (keep != nil && !keep(p)) {
			continue
		}
		copy := *p
		result = append(result, &copy)
	}
	slices.SortFunc(result, func(a, b *domain.SavedPlace) int { return strings.Compare(a.Label, b.Label) })
	return result
}

func (m *MockPlaceRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.places[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.places, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK RATING REPOSITORY
// ──────────────────────────────────────────────

// MockRatingRepository is a mock implementation of RatingRepository.
type MockRatingRepository struct {
	mu      sync.RWMutex
	ratings []*domain.Rating

	// Counters
	SummaryCallCount int32

	// Error injection
	SummaryError error
}

// NewMockRatingRepository creates a new mock rating repository.
func NewMockRatingRepository() *MockRatingRepository {
	return &MockRatingRepository{}
}

// AddRating adds a rating to the mock repository.
func (m *MockRatingRepository) AddRating(r *domain.Rating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings = append(m.ratings, r)
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.ratings {
		if r.TripID == rating.TripID && r.RaterID == rating.RaterID && r.RateeID == rating.RateeID {
			return repository.ErrConflict
		}
	}
	copy := *rating
	m.ratings = append(m.ratings, &copy)
	return nil
}

func (m *MockRatingRepository) ListByRatee(ctx context.Context, rateeID string) ([]*domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Rating
	for _, r := range m.ratings {
		if r.RateeID == rateeID {
			copy := *r
			result = append(result, &copy)
		}
	}
	slices.SortFunc(result, func(a, b *domain.Rating) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return result, nil
}

func (m *MockRatingRepository) Summary(ctx context.Context, rateeID string) (*domain.RatingSummary, error) {
	atomic.AddInt32(&m.SummaryCallCount, 1)
	if m.SummaryError != nil {
		return nil, m.SummaryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := &domain.RatingSummary{UserID: rateeID}
	total := 0
	for _, r := range m.ratings {
		if r.RateeID == rateeID {
			summary.Count++
			total += r.Score
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs the callback against the mock trip and request
// repositories and restores their previous state when it fails.
type MockTransactor struct {
	Trips    *MockTripRepository
	Requests *MockRequestRepository

	// Counters
	TxCount       int32
	RollbackCount int32
}

// NewMockTransactor creates a transactor over the given mocks.
func NewMockTransactor(trips *MockTripRepository, requests *MockRequestRepository) *MockTransactor {
	return &MockTransactor{Trips: trips, Requests: requests}
}

type mockTxRepos struct {
	trips    *MockTripRepository
	requests *MockRequestRepository
}

func (r mockTxRepos) Trips() repository.TripRepository       { return r.trips }
func (r mockTxRepos) Requests() repository.RequestRepository { return r.requests }

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	atomic.AddInt32(&m.TxCount, 1)

	trips := m.Trips.snapshot()
	requests := m.Requests.snapshot()

	if err := fn(ctx, mockTxRepos{trips: m.Trips, requests: m.Requests}); err != nil {
		atomic.AddInt32(&m.RollbackCount, 1)
		m.Trips.restore(trips)
		m.Requests.restore(requests)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStore. Updates are
// delivered to open subscriptions of the same driver.
type MockLocationStore struct {
	mu          sync.Mutex
	locations   map[string]domain.DriverLocation
	subscribers map[string][]*MockSubscription

	// Counters
	UpdateLocationCallCount int32
	SubscribeCallCount      int32

	// Error injection
	UpdateLocationError    error
	SubscribeError         error
	FindNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations:   make(map[string]domain.DriverLocation),
		subscribers: make(map[string][]*MockSubscription),
	}
}

// SetLocation stores a last fix without publishing it.
func (m *MockLocationStore) SetLocation(loc domain.DriverLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.DriverID] = loc
}

// OpenSubscriptions returns the number of open subscriptions.
func (m *MockLocationStore) OpenSubscriptions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, subs := range m.subscribers {
		n += len(subs)
	}
	return n
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, loc domain.DriverLocation) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.DriverID] = loc
	for _, sub := range m.subscribers[loc.DriverID] {
		select {
		case sub.updates <- loc:
		default:
		}
	}
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.locations[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &loc, nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64, limit int) ([]redis.NearbyDriver, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []redis.NearbyDriver
	for _, loc := range m.locations {
		d := geo.Haversine(p, loc.Point)
		if d <= radiusKm {
			result = append(result, redis.NearbyDriver{DriverID: loc.DriverID, Point: loc.Point, DistanceKm: d})
		}
	}
	slices.SortFunc(result, func(a, b redis.NearbyDriver) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return strings.Compare(a.DriverID, b.DriverID)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

func (m *MockLocationStore) Subscribe(ctx context.Context, driverID string) (redis.Subscription, error) {
	atomic.AddInt32(&m.SubscribeCallCount, 1)
	if m.SubscribeError != nil {
		return nil, m.SubscribeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &MockSubscription{
		store:    m,
		driverID: driverID,
		updates:  make(chan domain.DriverLocation, 16),
	}
	m.subscribers[driverID] = append(m.subscribers[driverID], sub)
	return sub, nil
}

// MockSubscription is a subscription created by MockLocationStore.
type MockSubscription struct {
	store    *MockLocationStore
	driverID string
	updates  chan domain.DriverLocation
	closed   bool
}

func (s *MockSubscription) Updates() <-chan domain.DriverLocation {
	return s.updates
}

func (s *MockSubscription) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	subs := s.store.subscribers[s.driverID]
	s.store.subscribers[s.driverID] = slices.DeleteFunc(subs, func(o *MockSubscription) bool { return o == s })
	if len(s.store.subscribers[s.driverID]) == 0 {
		delete(s.store.subscribers, s.driverID)
	}
	close(s.updates)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool

	// OnAcquire runs after a lock is granted, outside the store lock.
	OnAcquire func(tripID string)
}

type mockLock struct {
	token   string
	expires time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", false, nil
	}
	m.mu.Lock()
	if l, ok := m.locks[tripID]; ok && time.Now().Before(l.expires) {
		m.mu.Unlock()
		return "", false, nil
	}
	token := uuid.New().String()
	m.locks[tripID] = mockLock{token: token, expires: time.Now().Add(ttl)}
	m.mu.Unlock()

	if m.OnAcquire != nil {
		m.OnAcquire(tripID)
	}
	return token, true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[tripID]; ok && l.token == token {
		delete(m.locks, tripID)
	}
	return nil
}

// IsLocked reports whether the trip lock is held.
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[tripID]
	return ok && time.Now().Before(l.expires)
}

// Expire drops the trip lock as if its TTL had run out.
func (m *MockLockStore) Expire(tripID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tripID)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of the itinerary and address caches.
// Values are stored as JSON like the Redis implementation.
type MockCacheStore struct {
	mu        sync.Mutex
	itinerary map[string][]byte
	addresses map[string][]byte

	// Counters
	ItineraryHits       int32
	InvalidateCallCount int32

	// Error injection
	GetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		itinerary: make(map[string][]byte),
		addresses: make(map[string][]byte),
	}
}

// HasItinerary reports whether an itinerary is cached for the trip.
func (m *MockCacheStore) HasItinerary(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.itinerary[tripID]
	return ok
}

func (m *MockCacheStore) GetItinerary(ctx context.Context, tripID string, dest any) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.Lock()
	data, ok := m.itinerary[tripID]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	atomic.AddInt32(&m.ItineraryHits, 1)
	return true, json.Unmarshal(data, dest)
}

func (m *MockCacheStore) SetItinerary(ctx context.Context, tripID string, itinerary any) error {
	data, err := json.Marshal(itinerary)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itinerary[tripID] = data
	return nil
}

func (m *MockCacheStore) InvalidateItinerary(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.itinerary, tripID)
	return nil
}

func (m *MockCacheStore) GetAddress(ctx context.Context, cell string, dest any) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.Lock()
	data, ok := m.addresses[cell]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *MockCacheStore) SetAddress(ctx context.Context, cell string, address any, ttl time.Duration) error {
	data, err := json.Marshal(address)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[cell] = data
	return nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records sent notifications.
type MockNotifier struct {
	mu     sync.Mutex
	events []service.Notification

	// Error injection
	Error error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Events returns the recorded notifications.
func (m *MockNotifier) Events() []service.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Types returns the recorded notification types in order.
func (m *MockNotifier) Types() []service.NotificationType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]service.NotificationType, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

func (m *MockNotifier) record(t service.NotificationType, recipientIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range recipientIDs {
		m.events = append(m.events, service.Notification{Type: t, RecipientID: id, CreatedAt: time.Now().UTC()})
	}
	return m.Error
}

func (m *MockNotifier) NotifyRequestCreated(ctx context.Context, trip *domain.Trip, req *domain.ClientRequest) error {
	return m.record(service.NotificationRequestCreated, trip.DriverID)
}

func (m *MockNotifier) NotifyRequestAccepted(ctx context.Context, req *domain.ClientRequest) error {
	return m.record(service.NotificationRequestAccepted, req.ClientID)
}

func (m *MockNotifier) NotifyRequestRejected(ctx context.Context, req *domain.ClientRequest) error {
	return m.record(service.NotificationRequestRejected, req.ClientID)
}

func (m *MockNotifier) NotifyRequestCancelled(ctx context.Context, trip *domain.Trip, req *domain.ClientRequest) error {
	return m.record(service.NotificationRequestCancelled, trip.DriverID)
}

func (m *MockNotifier) NotifyTripStatus(ctx context.Context, trip *domain.Trip, clientIDs []string) error {
	var t service.NotificationType
	switch trip.Status {
	case domain.TripStatusStarted:
		t = service.NotificationTripStarted
	case domain.TripStatusCompleted:
		t = service.NotificationTripCompleted
	default:
		t = service.NotificationTripCancelled
	}
	return m.record(t, clientIDs...)
}

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// MockGeocoder is a mock implementation of ReverseGeocoder.
type MockGeocoder struct {
	Address *geocode.Address
	Error   error

	CallCount int32
}

func (m *MockGeocoder) Reverse(ctx context.Context, p geo.Point) (*geocode.Address, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Address == nil {
		return nil, geocode.ErrNotFound
	}
	addr := *m.Address
	addr.Point = p
	return &addr, nil
}

// ErrInjected is a generic failure for error injection.
var ErrInjected = errors.New("injected failure")

// Ensure mocks implement the interfaces.
var (
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.RouteRepository    = (*MockRouteRepository)(nil)
	_ repository.TripRepository     = (*MockTripRepository)(nil)
	_ repository.RequestRepository  = (*MockRequestRepository)(nil)
	_ repository.PlaceRepository    = (*MockPlaceRepository)(nil)
	_ repository.RatingRepository   = (*MockRatingRepository)(nil)
	_ repository.Transactor         = (*MockTransactor)(nil)
	_ redis.LocationStoreInterface  = (*MockLocationStore)(nil)
	_ redis.LockStoreInterface      = (*MockLockStore)(nil)
	_ redis.ItineraryCacheInterface = (*MockCacheStore)(nil)
	_ redis.AddressCacheInterface   = (*MockCacheStore)(nil)
	_ service.Notifier              = (*MockNotifier)(nil)
	_ service.ReverseGeocoder       = (*MockGeocoder)(nil)
)
