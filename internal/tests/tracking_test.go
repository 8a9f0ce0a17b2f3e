package tests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/metrics"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 12. LIVE TRACKING
// ──────────────────────────────────────────────

func receive(t *testing.T, ch <-chan domain.DriverLocation) domain.DriverLocation {
	t.Helper()
	select {
	case loc, ok := <-ch:
		require.True(t, ok, "updates channel closed")
		return loc
	case <-time.After(time.Second):
		t.Fatal("no location received")
		return domain.DriverLocation{}
	}
}

func report(t *testing.T, env *testEnv, driverID string, p geo.Point) {
	t.Helper()
	_, err := env.trackingService.UpdateLocation(context.Background(), service.UpdateLocationRequest{
		DriverID: driverID,
		CallerID: driverID,
		Point:    p,
	})
	require.NoError(t, err)
}

func TestTracking_UpdateLocation(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()

	loc, err := env.trackingService.UpdateLocation(ctx, service.UpdateLocationRequest{
		DriverID: "driver-1",
		CallerID: "driver-1",
		Point:    tunis,
		Heading:  135,
		SpeedKmh: 70,
	})
	require.NoError(t, err)
	assert.False(t, loc.UpdatedAt.IsZero())

	stored, err := env.trackingService.GetLocation(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, tunis, stored.Point)
	assert.Equal(t, 135.0, stored.Heading)

	_, err = env.trackingService.UpdateLocation(ctx, service.UpdateLocationRequest{DriverID: "driver-1", CallerID: "client-1", Point: tunis})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = env.trackingService.UpdateLocation(ctx, service.UpdateLocationRequest{DriverID: "driver-1", CallerID: "driver-1", Point: geo.Point{Lat: 120}})
	assert.ErrorIs(t, err, service.ErrInvalidLocation)

	assert.Equal(t, int32(1), env.locations.UpdateLocationCallCount)
}

func TestTracking_NearbyDrivers(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()

	env.locations.SetLocation(domain.DriverLocation{DriverID: "driver-far", Point: sousse})
	env.locations.SetLocation(domain.DriverLocation{DriverID: "driver-near", Point: geo.Point{Lat: 36.81, Lng: 10.19}})
	env.locations.SetLocation(domain.DriverLocation{DriverID: "driver-here", Point: tunis})

	nearby, err := env.trackingService.NearbyDrivers(ctx, tunis, 5, 0)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "driver-here", nearby[0].DriverID)
	assert.Equal(t, "driver-near", nearby[1].DriverID)

	limited, err := env.trackingService.NearbyDrivers(ctx, tunis, 500, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = env.trackingService.NearbyDrivers(ctx, tunis, 0, 0)
	assert.ErrorIs(t, err, service.ErrInvalidRadius)
}

func TestTracker_FollowDeliversLastFixFirst(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.locations.SetLocation(domain.DriverLocation{DriverID: "driver-1", Point: tunis})

	tracker := env.trackingService.NewTracker()
	defer tracker.Close()

	require.NoError(t, tracker.Follow(context.Background(), "driver-1"))
	assert.Equal(t, "driver-1", tracker.Following())

	assert.Equal(t, tunis, receive(t, tracker.Updates()).Point)

	report(t, env, "driver-1", grombali)
	assert.Equal(t, grombali, receive(t, tracker.Updates()).Point)
}

func TestTracker_RefollowReplacesSubscription(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()

	tracker := env.trackingService.NewTracker()
	defer tracker.Close()

	require.NoError(t, tracker.Follow(ctx, "driver-1"))
	require.NoError(t, tracker.Follow(ctx, "driver-2"))

	assert.Equal(t, "driver-2", tracker.Following())
	assert.Equal(t, 1, env.locations.OpenSubscriptions())

	report(t, env, "driver-1", tunis)
	report(t, env, "driver-2", sousse)

	loc := receive(t, tracker.Updates())
	assert.Equal(t, "driver-2", loc.DriverID, "updates of the previous driver are not delivered")
	assert.Equal(t, sousse, loc.Point)
}

func TestTracker_RefollowDropsQueuedFixes(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.locations.SetLocation(domain.DriverLocation{DriverID: "driver-1", Point: tunis})
	ctx := context.Background()

	tracker := env.trackingService.NewTracker()
	defer tracker.Close()

	// Nothing reads between the two follows, so driver-1's fixes sit queued.
	require.NoError(t, tracker.Follow(ctx, "driver-1"))
	report(t, env, "driver-1", grombali)
	require.NoError(t, tracker.Follow(ctx, "driver-2"))
	report(t, env, "driver-2", sousse)

	loc := receive(t, tracker.Updates())
	assert.Equal(t, "driver-2", loc.DriverID)
	assert.Equal(t, sousse, loc.Point)
}

func TestTracker_UnfollowDropsQueuedFixes(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.locations.SetLocation(domain.DriverLocation{DriverID: "driver-1", Point: tunis})

	tracker := env.trackingService.NewTracker()
	defer tracker.Close()

	require.NoError(t, tracker.Follow(context.Background(), "driver-1"))
	tracker.Unfollow()

	assert.Zero(t, len(tracker.Updates()))
}

func TestTracker_Unfollow(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	tracker := env.trackingService.NewTracker()
	defer tracker.Close()

	require.NoError(t, tracker.Follow(context.Background(), "driver-1"))
	tracker.Unfollow()

	assert.Empty(t, tracker.Following())
	assert.Equal(t, 0, env.locations.OpenSubscriptions())

	tracker.Unfollow()
}

func TestTracker_CloseEndsUpdates(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	ctx := context.Background()

	tracker := env.trackingService.NewTracker()
	require.NoError(t, tracker.Follow(ctx, "driver-1"))

	tracker.Close()
	tracker.Close()

	_, ok := <-tracker.Updates()
	assert.False(t, ok)
	assert.Equal(t, 0, env.locations.OpenSubscriptions())
	assert.ErrorIs(t, tracker.Follow(ctx, "driver-1"), service.ErrTrackerClosed)
}

func TestTracker_SubscribeFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.locations.SubscribeError = ErrInjected

	tracker := env.trackingService.NewTracker()
	defer tracker.Close()

	assert.ErrorIs(t, tracker.Follow(context.Background(), "driver-1"), ErrInjected)
	assert.Empty(t, tracker.Following())
	assert.ErrorIs(t, tracker.Follow(context.Background(), ""), service.ErrInvalidUserID)
}

func TestTracker_SubscriberGauge(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	locations := NewMockLocationStore()
	svc := service.NewTrackingService(locations, metrics.New(reg), zap.NewNop())
	ctx := context.Background()

	gauge := func(n string) string {
		return "# HELP rideshare_tracking_subscribers Number of live driver location subscriptions.\n" +
			"# TYPE rideshare_tracking_subscribers gauge\n" +
			"rideshare_tracking_subscribers " + n + "\n"
	}

	a := svc.NewTracker()
	b := svc.NewTracker()
	require.NoError(t, a.Follow(ctx, "driver-1"))
	require.NoError(t, b.Follow(ctx, "driver-1"))
	require.NoError(t, b.Follow(ctx, "driver-2"))

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(gauge("2")), "rideshare_tracking_subscribers"))

	a.Close()
	b.Close()
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(gauge("0")), "rideshare_tracking_subscribers"))
}
