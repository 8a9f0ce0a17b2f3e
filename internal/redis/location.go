package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/repository"
)

const driverLocationKey = "drivers:locations"

// DriverFixKey is both the key of a driver's last fix and the pub/sub
// channel its updates are published on.
func DriverFixKey(driverID string) string {
	return fmt.Sprintf("drivers:%s:location", driverID)
}

// NearbyDriver is a driver found by a radius search.
type NearbyDriver struct {
	DriverID   string
	Point      geo.Point
	DistanceKm float64
}

// Subscription is a live feed of one driver's location fixes.
type Subscription interface {
	Updates() <-chan domain.DriverLocation
	Close() error
}

// LocationStore handles driver location operations in Redis.
type LocationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocationStore creates a new LocationStore. Last fixes expire after ttl.
func NewLocationStore(client *redis.Client, ttl time.Duration) *LocationStore {
	return &LocationStore{client: client, ttl: ttl}
}

// UpdateLocation indexes the fix with GEOADD, stores it as the driver's last
// fix and publishes it to the driver's channel.
func (s *LocationStore) UpdateLocation(ctx context.Context, loc domain.DriverLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}

	key := DriverFixKey(loc.DriverID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
			Name:      loc.DriverID,
			Longitude: loc.Point.Lng,
			Latitude:  loc.Point.Lat,
		})
		pipe.Set(ctx, key, data, s.ttl)
		pipe.Publish(ctx, key, data)
		return nil
	})
	return err
}

// GetLocation returns the driver's last fix or repository.ErrNotFound.
func (s *LocationStore) GetLocation(ctx context.Context, driverID string) (*domain.DriverLocation, error) {
	data, err := s.client.Get(ctx, DriverFixKey(driverID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var loc domain.DriverLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindNearbyDrivers returns drivers within radiusKm of p, closest first.
// Drivers whose last fix expired are dropped from the geo index.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64, limit int) ([]NearbyDriver, error) {
	results, err := s.client.GeoRadius(ctx, driverLocationKey, p.Lng, p.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     limit,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	// Check which drivers still have a live fix.
	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(results))
	for i, r := range results {
		exists[i] = pipe.Exists(ctx, DriverFixKey(r.Name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	drivers := make([]NearbyDriver, 0, len(results))
	var stale []any
	for i, r := range results {
		if exists[i].Val() == 0 {
			stale = append(stale, r.Name)
			continue
		}
		drivers = append(drivers, NearbyDriver{
			DriverID:   r.Name,
			Point:      geo.Point{Lat: r.Latitude, Lng: r.Longitude},
			DistanceKm: r.Dist,
		})
	}

	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, driverLocationKey, stale...).Err()
	}

	return drivers, nil
}

// RemoveLocation removes a driver from the geo index and drops its last fix.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, driverLocationKey, driverID)
		pipe.Del(ctx, DriverFixKey(driverID))
		return nil
	})
	return err
}

// Subscribe opens a feed of the driver's published fixes. The subscription
// is confirmed before Subscribe returns.
func (s *LocationStore) Subscribe(ctx context.Context, driverID string) (Subscription, error) {
	ps := s.client.Subscribe(ctx, DriverFixKey(driverID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &pubsubSubscription{
		ps:      ps,
		updates: make(chan domain.DriverLocation, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go sub.run()

	return sub, nil
}

// pubsubSubscription decodes pub/sub messages into DriverLocation values.
type pubsubSubscription struct {
	ps      *redis.PubSub
	updates chan domain.DriverLocation
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (s *pubsubSubscription) Updates() <-chan domain.DriverLocation {
	return s.updates
}

func (s *pubsubSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
		<-s.stopped
	})
	return err
}

func (s *pubsubSubscription) run() {
	defer close(s.stopped)
	defer close(s.updates)

	messages := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var loc domain.DriverLocation
			if err := json.Unmarshal([]byte(msg.Payload), &loc); err != nil {
				continue
			}
			select {
			case s.updates <- loc:
			case <-s.done:
				return
			}
		}
	}
}
