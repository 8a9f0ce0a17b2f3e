package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ItineraryCacheTTL bounds how long a computed itinerary is served from cache.
const ItineraryCacheTTL = 5 * time.Minute

// Key prefixes
const (
	itineraryCachePrefix = "cache:itinerary:"
	addressCachePrefix   = "cache:geocode:"
)

// CacheStore handles JSON caching of derived data in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetItinerary loads a cached itinerary into dest. Returns false on a miss.
func (s *CacheStore) GetItinerary(ctx context.Context, tripID string, dest any) (bool, error) {
	return s.getJSON(ctx, itineraryCachePrefix+tripID, dest)
}

// SetItinerary caches an itinerary for ItineraryCacheTTL.
func (s *CacheStore) SetItinerary(ctx context.Context, tripID string, itinerary any) error {
	return s.setJSON(ctx, itineraryCachePrefix+tripID, itinerary, ItineraryCacheTTL)
}

// InvalidateItinerary removes a trip's itinerary from cache.
func (s *CacheStore) InvalidateItinerary(ctx context.Context, tripID string) error {
	return s.client.Del(ctx, itineraryCachePrefix+tripID).Err()
}

// GetAddress loads a cached reverse-geocoding result for a geohash cell.
func (s *CacheStore) GetAddress(ctx context.Context, cell string, dest any) (bool, error) {
	return s.getJSON(ctx, addressCachePrefix+cell, dest)
}

// SetAddress caches a reverse-geocoding result for a geohash cell.
func (s *CacheStore) SetAddress(ctx context.Context, cell string, address any, ttl time.Duration) error {
	return s.setJSON(ctx, addressCachePrefix+cell, address, ttl)
}

func (s *CacheStore) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
