package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func tripLockKey(tripID string) string {
	return fmt.Sprintf("lock:trip:%s", tripID)
}

// AcquireTripLock attempts to acquire the seat lock of a trip.
// On success it returns the token that must be passed to ReleaseTripLock.
// ok is false if the lock is already held.
func (s *LockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := s.client.SetNX(ctx, tripLockKey(tripID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// ReleaseTripLock releases the seat lock of a trip if token still owns it.
// A lock that expired and was taken by another holder is left alone.
func (s *LockStore) ReleaseTripLock(ctx context.Context, tripID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{tripLockKey(tripID)}, token).Err()
}
