package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rideshare/internal/config"
	"rideshare/internal/geo"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Address
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]Address)}
}

func (m *memoryCache) GetAddress(ctx context.Context, cell string, dest any) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	addr, ok := m.entries[cell]
	if !ok {
		return false, nil
	}
	*(dest.(*Address)) = addr
	return true, nil
}

func (m *memoryCache) SetAddress(ctx context.Context, cell string, address any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cell] = *(address.(*Address))
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cache Cache) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.GeocoderConfig{
		Enabled:   true,
		BaseURL:   server.URL + "/",
		UserAgent: "rideshare-test",
		Timeout:   2 * time.Second,
		CacheTTL:  time.Hour,
	}, cache, zap.NewNop())
}

func TestReverse_Success(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "36.8065", r.URL.Query().Get("lat"))
		assert.Equal(t, "10.1815", r.URL.Query().Get("lon"))
		assert.Equal(t, "rideshare-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"lat": "36.80651",
			"lon": "10.18149",
			"display_name": "Avenue Habib Bourguiba, Tunis, Tunisia",
			"address": {"road": "Avenue Habib Bourguiba", "town": "Tunis", "postcode": "1000", "country": "Tunisia"}
		}`))
	}, newMemoryCache())

	addr, err := client.Reverse(context.Background(), geo.Point{Lat: 36.8065, Lng: 10.1815})
	require.NoError(t, err)
	assert.Equal(t, "Avenue Habib Bourguiba, Tunis, Tunisia", addr.DisplayName)
	assert.Equal(t, "Tunis", addr.City)
	assert.Equal(t, "1000", addr.Postcode)
	assert.InDelta(t, 36.80651, addr.Point.Lat, 1e-9)

	// Second lookup in the same cell is served from cache.
	again, err := client.Reverse(context.Background(), geo.Point{Lat: 36.8065, Lng: 10.1815})
	require.NoError(t, err)
	assert.Equal(t, addr.DisplayName, again.DisplayName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReverse_NotFound(t *testing.T) {
	t.Run("error payload", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
		}, nil)

		_, err := client.Reverse(context.Background(), geo.Point{Lat: 0, Lng: -30})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("404", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, nil)

		_, err := client.Reverse(context.Background(), geo.Point{Lat: 0, Lng: -30})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReverse_UnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}, nil)

	_, err := client.Reverse(context.Background(), geo.Point{Lat: 1, Lng: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "429")
}

func TestReverse_InvalidBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, nil)

	_, err := client.Reverse(context.Background(), geo.Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestReverse_CacheErrorFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"display_name": "Somewhere", "lat": "1", "lon": "1"}`))
	}, cache)

	addr, err := client.Reverse(context.Background(), geo.Point{Lat: 1, Lng: 1})
	require.NoError(t, err)
	assert.Equal(t, "Somewhere", addr.DisplayName)
}

func TestReverse_Disabled(t *testing.T) {
	client := NewClient(config.GeocoderConfig{Enabled: false}, nil, zap.NewNop())

	_, err := client.Reverse(context.Background(), geo.Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrDisabled)
}
