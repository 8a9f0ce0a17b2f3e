package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryHook answers the lock commands from a map so no server is needed.
type memoryHook struct {
	mu   sync.Mutex
	data map[string]string
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		args := cmd.Args()
		switch cmd.Name() {
		case "set":
			key, value := fmt.Sprint(args[1]), fmt.Sprint(args[2])
			_, held := h.data[key]
			if !held {
				h.data[key] = value
			}
			cmd.(*redis.BoolCmd).SetVal(!held)
		case "evalsha", "eval":
			key, token := fmt.Sprint(args[3]), fmt.Sprint(args[4])
			var deleted int64
			if h.data[key] == token {
				delete(h.data, key)
				deleted = 1
			}
			cmd.(*redis.Cmd).SetVal(deleted)
		default:
			err := fmt.Errorf("unexpected command %q", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func (h *memoryHook) get(key string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data[key]
}

func (h *memoryHook) expire(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.data, key)
}

func newHookedLockStore(t *testing.T) (*LockStore, *memoryHook) {
	t.Helper()
	hook := &memoryHook{data: make(map[string]string)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	return NewLockStore(client), hook
}

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	store, hook := newHookedLockStore(t)
	ctx := context.Background()

	token, ok, err := store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)
	assert.Equal(t, token, hook.get("lock:trip:trip-1"))

	again, ok, err := store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, again)

	require.NoError(t, store.ReleaseTripLock(ctx, "trip-1", token))
	assert.Empty(t, hook.get("lock:trip:trip-1"))
}

func TestLockStore_StaleReleaseKeepsNewHolder(t *testing.T) {
	store, hook := newHookedLockStore(t)
	ctx := context.Background()

	first, ok, err := store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// The first holder overran its TTL and another writer took the lock.
	hook.expire("lock:trip:trip-1")
	second, ok, err := store.AcquireTripLock(ctx, "trip-1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, first, second)

	require.NoError(t, store.ReleaseTripLock(ctx, "trip-1", first))
	assert.Equal(t, second, hook.get("lock:trip:trip-1"))

	require.NoError(t, store.ReleaseTripLock(ctx, "trip-1", second))
	assert.Empty(t, hook.get("lock:trip:trip-1"))
}
