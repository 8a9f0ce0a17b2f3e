package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rideshare/internal/redis"
)

const defaultTripLockTTL = 10 * time.Second

// tripLocker serialises every write that changes a trip's seats or the
// status of its requests.
type tripLocker struct {
	store redis.LockStoreInterface
	ttl   time.Duration
	log   *zap.Logger
}

func newTripLocker(store redis.LockStoreInterface, ttl time.Duration, log *zap.Logger) tripLocker {
	if ttl <= 0 {
		ttl = defaultTripLockTTL
	}
	return tripLocker{store: store, ttl: ttl, log: log}
}

// run calls fn while holding the trip's lock. Returns ErrTripBusy when
// another writer holds it.
func (l tripLocker) run(ctx context.Context, tripID string, fn func() error) error {
	token, locked, err := l.store.AcquireTripLock(ctx, tripID, l.ttl)
	if err != nil {
		return err
	}
	if !locked {
		return ErrTripBusy
	}
	defer func() {
		if err := l.store.ReleaseTripLock(ctx, tripID, token); err != nil {
			l.log.Warn("trip lock release failed", zap.String("trip_id", tripID), zap.Error(err))
		}
	}()

	return fn()
}
