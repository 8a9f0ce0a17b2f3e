package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 9. TRIP SEARCH
// ──────────────────────────────────────────────

func matchIDs(matches []service.TripMatch) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Trip.ID
	}
	return ids
}

func newSearchEnv() *testEnv {
	env := newTestEnv()

	env.addTrip("trip-coast", "driver-1", 3) // Tunis -> Sousse

	short := env.addTrip("trip-short", "driver-2", 3)
	short.End = hammamet

	small := env.addTrip("trip-small", "driver-3", 1)
	small.End = hammamet

	south := env.addTrip("trip-south", "driver-4", 3)
	south.Start = sfax
	south.End = geo.Point{Lat: 34.0, Lng: 10.1}

	later := env.addTrip("trip-later", "driver-5", 3)
	later.Date = tripDate.AddDate(0, 0, 2)

	started := env.addTrip("trip-started", "driver-6", 3)
	started.Status = domain.TripStatusStarted

	return env
}

func TestMatching_RanksByDetour(t *testing.T) {
	t.Parallel()
	env := newSearchEnv()

	matches, err := env.matchingService.Search(context.Background(), service.SearchRequest{
		Pickup:  grombali,
		Dropoff: hammamet,
		Date:    tripDate.Add(9 * time.Hour),
		Seats:   2,
	})
	require.NoError(t, err)

	// trip-small lacks seats, trip-south is out of range, the rest are on
	// another day or already started.
	assert.Equal(t, []string{"trip-short", "trip-coast"}, matchIDs(matches))
	assert.Less(t, matches[0].DetourKm, matches[1].DetourKm)
	assert.InDelta(t, geo.Haversine(grombali, hammamet), matches[0].RideEstimate.DistanceKm, 1e-9)
}

func TestMatching_DefaultsToOneSeat(t *testing.T) {
	t.Parallel()
	env := newSearchEnv()

	matches, err := env.matchingService.Search(context.Background(), service.SearchRequest{
		Pickup:  grombali,
		Dropoff: hammamet,
		Date:    tripDate,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"trip-short", "trip-small", "trip-coast"}, matchIDs(matches))
}

func TestMatching_MaxDetourOverride(t *testing.T) {
	t.Parallel()
	env := newSearchEnv()

	matches, err := env.matchingService.Search(context.Background(), service.SearchRequest{
		Pickup:      grombali,
		Dropoff:     hammamet,
		Date:        tripDate,
		Seats:       2,
		MaxDetourKm: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"trip-short"}, matchIDs(matches))
}

func TestMatching_AttachesDriverRating(t *testing.T) {
	t.Parallel()
	env := newSearchEnv()
	env.ratings.AddRating(&domain.Rating{ID: "r1", TripID: "old", RaterID: "c1", RateeID: "driver-1", Score: 4})
	env.ratings.AddRating(&domain.Rating{ID: "r2", TripID: "old", RaterID: "c2", RateeID: "driver-1", Score: 5})

	matches, err := env.matchingService.Search(context.Background(), service.SearchRequest{
		Pickup: grombali, Dropoff: hammamet, Date: tripDate, Seats: 2,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	byTrip := map[string]domain.RatingSummary{}
	for _, m := range matches {
		byTrip[m.Trip.ID] = m.DriverRating
	}
	assert.Equal(t, 2, byTrip["trip-coast"].Count)
	assert.InDelta(t, 4.5, byTrip["trip-coast"].Average, 1e-9)
	assert.Equal(t, 0, byTrip["trip-short"].Count)
	assert.Equal(t, int32(2), env.ratings.SummaryCallCount)
}

func TestMatching_RatingFailurePropagates(t *testing.T) {
	t.Parallel()
	env := newSearchEnv()
	env.ratings.SummaryError = ErrInjected

	_, err := env.matchingService.Search(context.Background(), service.SearchRequest{
		Pickup: grombali, Dropoff: hammamet, Date: tripDate,
	})
	assert.ErrorIs(t, err, ErrInjected)
}

func TestMatching_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	tests := []struct {
		name    string
		req     service.SearchRequest
		wantErr error
	}{
		{"invalid pickup", service.SearchRequest{Pickup: geo.Point{Lng: 181}, Dropoff: hammamet, Date: tripDate}, service.ErrInvalidLocation},
		{"same points", service.SearchRequest{Pickup: hammamet, Dropoff: hammamet, Date: tripDate}, service.ErrSamePoints},
		{"missing date", service.SearchRequest{Pickup: grombali, Dropoff: hammamet}, service.ErrInvalidDate},
		{"negative seats", service.SearchRequest{Pickup: grombali, Dropoff: hammamet, Date: tripDate, Seats: -1}, service.ErrInvalidSeats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.matchingService.Search(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMatching_NoTrips(t *testing.T) {
	t.Parallel()
	env := newTestEnv()

	matches, err := env.matchingService.Search(context.Background(), service.SearchRequest{
		Pickup: grombali, Dropoff: hammamet, Date: tripDate,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
