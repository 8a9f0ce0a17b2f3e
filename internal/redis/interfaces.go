package redis

import (
	"context"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, loc domain.DriverLocation) error
	GetLocation(ctx context.Context, driverID string) (*domain.DriverLocation, error)
	FindNearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64, limit int) ([]NearbyDriver, error)
	RemoveLocation(ctx context.Context, driverID string) error
	Subscribe(ctx context.Context, driverID string) (Subscription, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseTripLock(ctx context.Context, tripID, token string) error
}

// ItineraryCacheInterface defines the cache of computed trip itineraries.
type ItineraryCacheInterface interface {
	GetItinerary(ctx context.Context, tripID string, dest any) (bool, error)
	SetItinerary(ctx context.Context, tripID string, itinerary any) error
	InvalidateItinerary(ctx context.Context, tripID string) error
}

// AddressCacheInterface defines the cache of reverse-geocoding results.
type AddressCacheInterface interface {
	GetAddress(ctx context.Context, cell string, dest any) (bool, error)
	SetAddress(ctx context.Context, cell string, address any, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface  = (*LocationStore)(nil)
	_ LockStoreInterface      = (*LockStore)(nil)
	_ ItineraryCacheInterface = (*CacheStore)(nil)
	_ AddressCacheInterface   = (*CacheStore)(nil)
)
