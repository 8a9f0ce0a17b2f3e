package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/metrics"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

const (
	defaultNearbyLimit = 20
	trackerBufferSize  = 16
)

// ErrTrackerClosed is returned when following through a closed Tracker.
var ErrTrackerClosed = errors.New("tracker closed")

// TrackingService handles live driver locations.
type TrackingService struct {
	locations redis.LocationStoreInterface
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewTrackingService creates a new TrackingService. m may be nil.
func NewTrackingService(locations redis.LocationStoreInterface, m *metrics.Metrics, log *zap.Logger) *TrackingService {
	return &TrackingService{
		locations: locations,
		metrics:   m,
		log:       log.Named("tracking"),
	}
}

// UpdateLocationRequest contains a driver's position report.
type UpdateLocationRequest struct {
	DriverID string
	CallerID string
	Point    geo.Point
	Heading  float64
	SpeedKmh float64
}

// UpdateLocation records and broadcasts a driver's position. Drivers may
// only report their own position.
func (s *TrackingService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) (*domain.DriverLocation, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidUserID
	}
	if req.CallerID != req.DriverID {
		return nil, ErrForbidden
	}
	if !req.Point.Valid() {
		return nil, ErrInvalidLocation
	}

	loc := domain.DriverLocation{
		DriverID:  req.DriverID,
		Point:     req.Point,
		Heading:   req.Heading,
		SpeedKmh:  req.SpeedKmh,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.locations.UpdateLocation(ctx, loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// GetLocation returns the driver's last known position.
func (s *TrackingService) GetLocation(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	if driverID == "" {
		return nil, ErrInvalidUserID
	}
	return s.locations.GetLocation(ctx, driverID)
}

// NearbyDrivers returns drivers with a live position within radiusKm of p.
func (s *TrackingService) NearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64, limit int) ([]redis.NearbyDriver, error) {
	if !p.Valid() {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		return nil, ErrInvalidRadius
	}
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	return s.locations.FindNearbyDrivers(ctx, p, radiusKm, limit)
}

// NewTracker creates a Tracker for one client connection.
func (s *TrackingService) NewTracker() *Tracker {
	return &Tracker{
		svc:     s,
		updates: make(chan domain.DriverLocation, trackerBufferSize),
	}
}

// Tracker follows at most one driver at a time. Following another driver
// closes the previous subscription before the new one starts.
type Tracker struct {
	svc     *TrackingService
	updates chan domain.DriverLocation

	mu      sync.Mutex
	current *following
	closed  bool
}

type following struct {
	driverID string
	sub      redis.Subscription
	stop     chan struct{}
	done     chan struct{}
}

// Updates delivers the followed driver's positions. It is closed by Close.
func (t *Tracker) Updates() <-chan domain.DriverLocation {
	return t.updates
}

// Following returns the followed driver, or "" when idle.
func (t *Tracker) Following() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return ""
	}
	return t.current.driverID
}

// Follow replaces the current subscription with one on driverID. The last
// known position, if any, is delivered first.
func (t *Tracker) Follow(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidUserID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	t.stopLocked()

	sub, err := t.svc.locations.Subscribe(ctx, driverID)
	if err != nil {
		return err
	}

	last, err := t.svc.locations.GetLocation(ctx, driverID)
	switch {
	case err == nil:
		select {
		case t.updates <- *last:
		default:
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		t.svc.log.Warn("last location lookup failed", zap.String("driver_id", driverID), zap.Error(err))
	}

	f := &following{
		driverID: driverID,
		sub:      sub,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	t.current = f
	t.svc.metrics.SubscriberAdded()

	go t.forward(f)
	return nil
}

// Unfollow ends the current subscription, if any.
func (t *Tracker) Unfollow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Close ends the subscription and closes Updates. It is safe to call twice.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.stopLocked()
	t.closed = true
	close(t.updates)
}

func (t *Tracker) stopLocked() {
	f := t.current
	if f == nil {
		return
	}
	t.current = nil

	close(f.stop)
	if err := f.sub.Close(); err != nil {
		t.svc.log.Warn("subscription close failed", zap.String("driver_id", f.driverID), zap.Error(err))
	}
	<-f.done
	t.svc.metrics.SubscriberRemoved()

	// Fixes already queued belong to the driver just dropped.
	for {
		select {
		case <-t.updates:
		default:
			return
		}
	}
}

func (t *Tracker) forward(f *following) {
	defer close(f.done)

	for {
		select {
		case <-f.stop:
			return
		case loc, ok := <-f.sub.Updates():
			if !ok {
				return
			}
			select {
			case t.updates <- loc:
			case <-f.stop:
				return
			}
		}
	}
}
