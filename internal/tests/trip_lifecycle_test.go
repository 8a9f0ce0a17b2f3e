package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 3. TRIP SCHEDULING
// ──────────────────────────────────────────────

func TestTrip_CreateCopiesRoute(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	route := env.addDriverRoute("route-1", "driver-1")

	trip, err := env.tripService.CreateTrip(context.Background(), service.CreateTripRequest{
		RouteID:  "route-1",
		DriverID: "driver-1",
		Date:     tripDate.Add(15 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, tripDate, trip.Date, "date is truncated to the UTC day")
	assert.Equal(t, domain.TripStatusScheduled, trip.Status)
	assert.Equal(t, route.Seats, trip.SeatsTotal)
	assert.Equal(t, route.Seats, trip.SeatsAvailable)
	assert.Equal(t, route.Price, trip.Price)
	assert.Equal(t, route.Waypoints, trip.Waypoints)
	assert.Equal(t, 1, env.trips.CountTrips())
}

func TestTrip_CreateRules(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addDriverRoute("route-1", "driver-1")

	inactive := env.addDriverRoute("route-inactive", "driver-1")
	inactive.Active = false

	client := env.addDriverRoute("route-client", "driver-1")
	client.Kind = domain.RouteKindClient

	ctx := context.Background()
	_, err := env.tripService.CreateTrip(ctx, service.CreateTripRequest{RouteID: "route-1", DriverID: "driver-1", Date: tripDate})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     service.CreateTripRequest
		wantErr error
	}{
		{"not the owner", service.CreateTripRequest{RouteID: "route-1", DriverID: "driver-2", Date: tripDate}, service.ErrForbidden},
		{"inactive route", service.CreateTripRequest{RouteID: "route-inactive", DriverID: "driver-1", Date: tripDate}, service.ErrRouteInactive},
		{"client route", service.CreateTripRequest{RouteID: "route-client", DriverID: "driver-1", Date: tripDate}, service.ErrNotDriverRoute},
		{"day not scheduled", service.CreateTripRequest{RouteID: "route-1", DriverID: "driver-1", Date: tripDate.AddDate(0, 0, 1)}, service.ErrDayNotScheduled},
		{"already scheduled", service.CreateTripRequest{RouteID: "route-1", DriverID: "driver-1", Date: tripDate}, service.ErrTripExists},
		{"missing date", service.CreateTripRequest{RouteID: "route-1", DriverID: "driver-1"}, service.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tripService.CreateTrip(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 1, env.trips.CountTrips())
}

// ──────────────────────────────────────────────
// 4. TRIP STATE MACHINE
// ──────────────────────────────────────────────

func TestTrip_StartThenComplete(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	env.addRequest("req-1", "trip-1", "client-1", 1, domain.RequestStatusAccepted)
	ctx := context.Background()

	started, err := env.tripService.StartTrip(ctx, "trip-1", "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusStarted, started.Status)
	assert.False(t, started.StartedAt.IsZero())

	completed, err := env.tripService.CompleteTrip(ctx, "trip-1", "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCompleted, completed.Status)
	assert.False(t, completed.EndedAt.IsZero())

	assert.Equal(t, domain.TripStatusCompleted, env.trips.GetTrip("trip-1").Status)
	assert.Equal(t,
		[]service.NotificationType{service.NotificationTripStarted, service.NotificationTripCompleted},
		env.notifier.Types(),
	)
}

func TestTrip_InvalidTransitions(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	ctx := context.Background()

	_, err := env.tripService.CompleteTrip(ctx, "trip-1", "driver-1")
	assert.ErrorIs(t, err, service.ErrInvalidTripTransition, "cannot complete before start")

	_, err = env.tripService.StartTrip(ctx, "trip-1", "client-1")
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = env.tripService.CancelTrip(ctx, "trip-1", "driver-1")
	require.NoError(t, err)

	_, err = env.tripService.StartTrip(ctx, "trip-1", "driver-1")
	assert.ErrorIs(t, err, service.ErrInvalidTripTransition, "cancelled is terminal")
}

func TestTrip_CancelCancelsOpenRequests(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	env.addRequest("req-pending", "trip-1", "client-1", 1, domain.RequestStatusPending)
	env.addRequest("req-accepted", "trip-1", "client-2", 1, domain.RequestStatusAccepted)
	env.addRequest("req-rejected", "trip-1", "client-3", 1, domain.RequestStatusRejected)
	require.NoError(t, env.cache.SetItinerary(context.Background(), "trip-1", service.Itinerary{TripID: "trip-1"}))

	trip, err := env.tripService.CancelTrip(context.Background(), "trip-1", "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCancelled, trip.Status)

	assert.Equal(t, domain.RequestStatusCancelled, env.requests.GetRequest("req-pending").Status)
	assert.Equal(t, domain.RequestStatusCancelled, env.requests.GetRequest("req-accepted").Status)
	assert.Equal(t, domain.RequestStatusRejected, env.requests.GetRequest("req-rejected").Status)
	assert.False(t, env.cache.HasItinerary("trip-1"))

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, service.NotificationTripCancelled, events[0].Type)
	assert.Equal(t, "client-2", events[0].RecipientID)
}

func TestTrip_CancelRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	env.addRequest("req-1", "trip-1", "client-1", 1, domain.RequestStatusPending)
	env.requests.UpdateStatusError = ErrInjected

	_, err := env.tripService.CancelTrip(context.Background(), "trip-1", "driver-1")
	require.ErrorIs(t, err, ErrInjected)

	assert.Equal(t, domain.TripStatusScheduled, env.trips.GetTrip("trip-1").Status)
	assert.Equal(t, domain.RequestStatusPending, env.requests.GetRequest("req-1").Status)
	assert.Equal(t, int32(1), env.tx.RollbackCount)
}

func TestTrip_CancelWhileLocked(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	env.addRequest("req-1", "trip-1", "client-1", 1, domain.RequestStatusPending)
	env.locks.ForceAcquireFailure = true

	_, err := env.tripService.CancelTrip(context.Background(), "trip-1", "driver-1")
	require.ErrorIs(t, err, service.ErrTripBusy)

	assert.Equal(t, domain.TripStatusScheduled, env.trips.GetTrip("trip-1").Status)
	assert.Equal(t, domain.RequestStatusPending, env.requests.GetRequest("req-1").Status)
	assert.Equal(t, int32(0), env.tx.TxCount)
}

func TestTrip_CancelHoldsLockAgainstAccept(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	env.addRequest("req-1", "trip-1", "client-1", 1, domain.RequestStatusPending)

	var acceptErr error
	var once sync.Once
	env.trips.BeforeUpdate = func() {
		once.Do(func() {
			_, acceptErr = env.requestService.AcceptRequest(context.Background(), "req-1", "driver-1")
		})
	}

	_, err := env.tripService.CancelTrip(context.Background(), "trip-1", "driver-1")
	require.NoError(t, err)

	assert.ErrorIs(t, acceptErr, service.ErrTripBusy)
	assert.Equal(t, domain.RequestStatusCancelled, env.requests.GetRequest("req-1").Status)
	assert.Equal(t, 3, env.trips.GetTrip("trip-1").SeatsAvailable)
	assert.False(t, env.locks.IsLocked("trip-1"))
}

func TestTrip_TransitionLosesToConcurrentWriter(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	trip := env.addTrip("trip-1", "driver-1", 3)
	trip.Status = domain.TripStatusStarted

	// A cancel commits after the complete read STARTED.
	env.trips.BeforeUpdate = func() {
		env.trips.SetStatus("trip-1", domain.TripStatusCancelled)
	}

	_, err := env.tripService.CompleteTrip(context.Background(), "trip-1", "driver-1")
	require.ErrorIs(t, err, service.ErrInvalidTripTransition)

	stored := env.trips.GetTrip("trip-1")
	assert.Equal(t, domain.TripStatusCancelled, stored.Status, "the first writer wins")
	assert.True(t, stored.EndedAt.IsZero())
	assert.Empty(t, env.notifier.Types())
}

// ──────────────────────────────────────────────
// 5. ITINERARY
// ──────────────────────────────────────────────

func TestTrip_ItineraryOrdersAcceptedPassengers(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)

	// Picked up near Tunis, dropped at Hammamet.
	env.requests.AddRequest(&domain.ClientRequest{
		ID: "req-a", TripID: "trip-1", ClientID: "client-1", Seats: 1,
		Pickup: grombali, Dropoff: hammamet, Status: domain.RequestStatusAccepted,
	})
	// Pending requests are not part of the itinerary.
	env.requests.AddRequest(&domain.ClientRequest{
		ID: "req-b", TripID: "trip-1", ClientID: "client-2", Seats: 1,
		Pickup: bouficha, Dropoff: sfax, Status: domain.RequestStatusPending,
	})

	itinerary, err := env.tripService.GetItinerary(context.Background(), "trip-1")
	require.NoError(t, err)

	kinds := make([]geo.StopKind, len(itinerary.Stops))
	for i, s := range itinerary.Stops {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []geo.StopKind{geo.StopStart, geo.StopPickup, geo.StopDropoff, geo.StopEnd}, kinds)
	assert.Equal(t, "req-a", itinerary.Stops[1].RequestID)
	assert.Equal(t, []geo.Point{tunis, grombali, hammamet, sousse}, itinerary.Polyline)
	assert.InDelta(t, geo.PathLength(itinerary.Polyline), itinerary.DistanceKm, 1e-9)
	assert.True(t, env.cache.HasItinerary("trip-1"))
}

func TestTrip_ItineraryServedFromCache(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	ctx := context.Background()

	first, err := env.tripService.GetItinerary(ctx, "trip-1")
	require.NoError(t, err)

	second, err := env.tripService.GetItinerary(ctx, "trip-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), env.cache.ItineraryHits)
}

func TestTrip_ItineraryIgnoresCacheErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.addTrip("trip-1", "driver-1", 3)
	env.cache.GetError = ErrInjected

	itinerary, err := env.tripService.GetItinerary(context.Background(), "trip-1")
	require.NoError(t, err)
	assert.Len(t, itinerary.Stops, 2)
}
