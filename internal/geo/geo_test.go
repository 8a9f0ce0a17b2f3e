package geo

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tunis    = Point{Lat: 36.8065, Lng: 10.1815}
	sousse   = Point{Lat: 35.8256, Lng: 10.6084}
	paris    = Point{Lat: 48.8566, Lng: 2.3522}
	london   = Point{Lat: 51.5074, Lng: -0.1278}
	equator0 = Point{Lat: 0, Lng: 0}
)

func TestHaversine_KnownDistances(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{name: "paris to london", a: paris, b: london, want: 343.5, tol: 1.0},
		{name: "tunis to sousse", a: tunis, b: sousse, want: 115.6, tol: 1.5},
		{name: "one degree of longitude on the equator", a: equator0, b: Point{Lat: 0, Lng: 1}, want: 111.19, tol: 0.05},
		{name: "same point", a: tunis, b: tunis, want: 0, tol: 1e-9},
		{name: "antipodal", a: equator0, b: Point{Lat: 0, Lng: 180}, want: math.Pi * EarthRadiusKm, tol: 1e-6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Haversine(tc.a, tc.b), tc.tol)
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, Haversine(paris, london), Haversine(london, paris), 1e-9)
	assert.GreaterOrEqual(t, Haversine(tunis, Point{Lat: -33.9, Lng: 151.2}), 0.0)
}

func TestPoint_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, Point{Lat: 90, Lng: 180}.Valid())
	assert.True(t, Point{Lat: -90, Lng: -180}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.Valid())
}

func TestPathLength(t *testing.T) {
	t.Parallel()

	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength([]Point{tunis}))
	assert.InDelta(t, Haversine(paris, london)*2, PathLength([]Point{paris, london, paris}), 1e-9)
}

func TestOrderStops_EmptyInput(t *testing.T) {
	t.Parallel()

	stops := OrderStops(tunis, sousse, nil, nil)

	require.Len(t, stops, 2)
	assert.Equal(t, StopStart, stops[0].Kind)
	assert.Equal(t, StopEnd, stops[1].Kind)
	assert.Equal(t, -1, stops[0].Index)
}

func TestOrderStops_VisitsNearestFirst(t *testing.T) {
	t.Parallel()

	start := Point{Lat: 0, Lng: 0}
	end := Point{Lat: 0, Lng: 10}
	waypoints := []Point{{Lat: 0, Lng: 6}, {Lat: 0, Lng: 2}, {Lat: 0, Lng: 4}}

	stops := OrderStops(start, end, waypoints, nil)

	require.Len(t, stops, 5)
	assert.Equal(t, []int{-1, 1, 2, 0, -1}, indexes(stops))
}

func TestOrderStops_DropoffNeverBeforePickup(t *testing.T) {
	t.Parallel()

	start := Point{Lat: 0, Lng: 0}
	end := Point{Lat: 0, Lng: 10}
	// The dropoff is right next to the start, the pickup far away: the
	// dropoff must still wait for its pickup.
	passengers := []Passenger{
		{RequestID: "r1", Pickup: Point{Lat: 0, Lng: 8}, Dropoff: Point{Lat: 0, Lng: 0.5}},
		{RequestID: "r2", Pickup: Point{Lat: 0, Lng: 3}, Dropoff: Point{Lat: 0, Lng: 9}},
	}

	stops := OrderStops(start, end, nil, passengers)

	require.Len(t, stops, 6)
	position := map[string]int{}
	for i, s := range stops {
		position[string(s.Kind)+":"+s.RequestID] = i
	}
	for _, p := range passengers {
		assert.Less(t, position["PICKUP:"+p.RequestID], position["DROPOFF:"+p.RequestID], p.RequestID)
	}
	assert.Equal(t, StopPickup, stops[1].Kind)
	assert.Equal(t, "r2", stops[1].RequestID)
}

func TestOrderStops_EveryStopOnce(t *testing.T) {
	t.Parallel()

	waypoints := []Point{{Lat: 36.5, Lng: 10.3}, {Lat: 36.2, Lng: 10.4}}
	passengers := []Passenger{
		{RequestID: "a", Pickup: Point{Lat: 36.7, Lng: 10.2}, Dropoff: Point{Lat: 36.0, Lng: 10.5}},
		{RequestID: "b", Pickup: Point{Lat: 36.4, Lng: 10.35}, Dropoff: Point{Lat: 35.9, Lng: 10.55}},
		{RequestID: "c", Pickup: Point{Lat: 36.1, Lng: 10.45}, Dropoff: Point{Lat: 36.3, Lng: 10.38}},
	}

	stops := OrderStops(tunis, sousse, waypoints, passengers)

	require.Len(t, stops, 2+len(waypoints)+2*len(passengers))
	counts := map[StopKind]int{}
	for _, s := range stops {
		counts[s.Kind]++
	}
	assert.Equal(t, 1, counts[StopStart])
	assert.Equal(t, 1, counts[StopEnd])
	assert.Equal(t, 2, counts[StopWaypoint])
	assert.Equal(t, 3, counts[StopPickup])
	assert.Equal(t, 3, counts[StopDropoff])
	assert.Equal(t, StopEnd, stops[len(stops)-1].Kind)
}

func TestOrderStops_TiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	start := Point{Lat: 0, Lng: 0}
	same := Point{Lat: 0, Lng: 1}
	passengers := []Passenger{{RequestID: "p", Pickup: same, Dropoff: Point{Lat: 0, Lng: 2}}}

	stops := OrderStops(start, Point{Lat: 0, Lng: 3}, []Point{same}, passengers)

	assert.Equal(t, StopWaypoint, stops[1].Kind)
	assert.Equal(t, StopPickup, stops[2].Kind)
}

func TestPolyline(t *testing.T) {
	t.Parallel()

	stops := OrderStops(tunis, sousse, []Point{{Lat: 36.3, Lng: 10.4}}, nil)
	assert.Equal(t, []Point{tunis, {Lat: 36.3, Lng: 10.4}, sousse}, Polyline(stops))
}

func TestDetourKm(t *testing.T) {
	t.Parallel()

	start := Point{Lat: 0, Lng: 0}
	end := Point{Lat: 0, Lng: 2}

	// On the way: no detour.
	assert.InDelta(t, 0, DetourKm(start, end, Point{Lat: 0, Lng: 0.5}, Point{Lat: 0, Lng: 1.5}), 1e-6)

	// Off the line: strictly positive.
	off := DetourKm(start, end, Point{Lat: 0.5, Lng: 1}, Point{Lat: 0, Lng: 1.5})
	assert.Greater(t, off, 0.0)

	// Going backwards costs twice the backtrack.
	back := DetourKm(start, end, Point{Lat: 0, Lng: 1}, Point{Lat: 0, Lng: 0.5})
	assert.InDelta(t, 2*Haversine(Point{Lat: 0, Lng: 1}, Point{Lat: 0, Lng: 0.5}), back, 1e-6)
}

func TestInsertionDetourKm_MatchesDetourWithoutWaypoints(t *testing.T) {
	t.Parallel()

	pickup := Point{Lat: 36.5, Lng: 10.1}
	dropoff := Point{Lat: 36.0, Lng: 10.7}

	assert.InDelta(t,
		DetourKm(tunis, sousse, pickup, dropoff),
		InsertionDetourKm([]Point{tunis, sousse}, pickup, dropoff),
		1e-9,
	)
}

func TestInsertionDetourKm_UsesBestLegs(t *testing.T) {
	t.Parallel()

	path := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}, {Lat: 0, Lng: 3}}

	// Pickup on leg 0 and dropoff on leg 2, both on the line.
	detour := InsertionDetourKm(path, Point{Lat: 0, Lng: 0.5}, Point{Lat: 0, Lng: 2.5})
	assert.InDelta(t, 0, detour, 1e-6)
}

func TestRankByDetour(t *testing.T) {
	t.Parallel()

	candidates := []DetourCandidate{
		{ID: "far", Start: Point{Lat: 1, Lng: 0}, End: Point{Lat: 1, Lng: 2}},
		{ID: "direct", Start: Point{Lat: 0, Lng: 0}, End: Point{Lat: 0, Lng: 2}},
		{ID: "direct-twin", Start: Point{Lat: 0, Lng: 0}, End: Point{Lat: 0, Lng: 2}},
		{ID: "close", Start: Point{Lat: 0.05, Lng: 0}, End: Point{Lat: 0.05, Lng: 2}},
	}
	pickup := Point{Lat: 0, Lng: 0.5}
	dropoff := Point{Lat: 0, Lng: 1.5}

	ranked := RankByDetour(candidates, pickup, dropoff, 0)
	require.Len(t, ranked, 4)
	assert.Equal(t, []string{"direct", "direct-twin", "close", "far"}, ids(ranked))
	assert.InDelta(t, 222.39, ranked[0].BaseKm, 0.1)

	limited := RankByDetour(candidates, pickup, dropoff, 20)
	assert.Equal(t, []string{"direct", "direct-twin", "close"}, ids(limited))
}

func TestEstimator(t *testing.T) {
	t.Parallel()

	path := []Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	distance := Haversine(path[0], path[1])

	est := NewEstimator(60).Estimate(path)
	assert.InDelta(t, distance, est.DistanceKm, 1e-9)
	assert.InDelta(t, distance, est.Minutes(), 0.02)

	fallback := Estimator{}.Estimate(path)
	assert.InDelta(t, distance/DefaultSpeedKmh*60, fallback.Minutes(), 0.02)

	assert.Equal(t, time.Duration(0), NewEstimator(50).Estimate(nil).Duration)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	t.Parallel()

	sw, ne := BoundingBox(tunis, 10)
	assert.Less(t, sw.Lat, tunis.Lat)
	assert.Greater(t, ne.Lng, tunis.Lng)

	north := Point{Lat: ne.Lat, Lng: tunis.Lng}
	assert.InDelta(t, 10, Haversine(tunis, north), 0.01)
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	t.Parallel()

	sw, ne := BoundingBox(Point{Lat: -17.7, Lng: 179.98}, 10)
	assert.Greater(t, sw.Lng, ne.Lng, "box wraps")
	assert.Greater(t, sw.Lng, 179.8)
	assert.Less(t, ne.Lng, -179.8)

	sw, ne = BoundingBox(Point{Lat: 89.99, Lng: 10}, 5)
	assert.Equal(t, -180.0, sw.Lng)
	assert.Equal(t, 180.0, ne.Lng)
	assert.Equal(t, 90.0, ne.Lat)
}

func TestGeohash(t *testing.T) {
	t.Parallel()

	hash := Geohash(paris, 5)
	assert.Equal(t, "u09tv", hash)
	assert.Len(t, GeohashNeighbors(hash), 8)

	cells := CoveringCells(paris, 2)
	assert.Len(t, cells, 9)
	assert.Len(t, cells[0], int(PrecisionForRadius(paris, 2)))
}

func TestGeohashNeighbors_WrapAntimeridian(t *testing.T) {
	t.Parallel()

	east := Geohash(Point{Lat: 10, Lng: 179.99}, 5)
	west := Geohash(Point{Lat: 10, Lng: -179.99}, 5)
	assert.Contains(t, GeohashNeighbors(east), west)
	assert.Contains(t, GeohashNeighbors(west), east)
}

func TestPrecisionForRadius(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint(9), PrecisionForRadius(equator0, 0.001))
	assert.Equal(t, uint(5), PrecisionForRadius(equator0, 4.5))
	assert.Equal(t, uint(4), PrecisionForRadius(Point{Lat: 60, Lng: 10}, 4.5), "cells narrow away from the equator")
	assert.Equal(t, uint(0), PrecisionForRadius(Point{Lat: 89.99, Lng: 0}, 5), "circle reaches the pole")

	prev := PrecisionForRadius(paris, 0.01)
	for _, r := range []float64{0.1, 1, 5, 20, 100, 1000} {
		p := PrecisionForRadius(paris, r)
		assert.LessOrEqual(t, p, prev, "radius %v", r)
		prev = p
	}
}

// offset moves center by distKm along bearingDeg on a local flat projection.
func offset(center Point, distKm, bearingDeg float64) Point {
	angular := distKm / EarthRadiusKm * 180 / math.Pi
	b := bearingDeg * math.Pi / 180
	return Point{
		Lat: center.Lat + angular*math.Cos(b),
		Lng: wrapLng(center.Lng + angular*math.Sin(b)/math.Cos(center.Lat*math.Pi/180)),
	}
}

func covered(cells []string, p Point) bool {
	for _, c := range cells {
		if strings.HasPrefix(Geohash(p, PlaceGeohashPrecision), c) {
			return true
		}
	}
	return false
}

func TestCoveringCells_ContainRadius(t *testing.T) {
	t.Parallel()

	centers := []Point{
		equator0,
		{Lat: 45, Lng: 7.5},
		{Lat: 60, Lng: 10},
		{Lat: -60, Lng: -70},
		{Lat: 10, Lng: 179.99},
		tunis,
	}
	for _, c := range centers {
		for _, r := range []float64{0.3, 2, 4.5, 12, 40} {
			cells := CoveringCells(c, r)
			for bearing := 0.0; bearing < 360; bearing += 10 {
				p := offset(c, r*0.99, bearing)
				if Haversine(c, p) > r {
					continue
				}
				assert.True(t, covered(cells, p), "center %v radius %v bearing %v", c, r, bearing)
			}
		}
	}
}

func TestCoveringCells_HighLatitudeEast(t *testing.T) {
	t.Parallel()

	center := Point{Lat: 60, Lng: 10}
	place := Point{Lat: 60, Lng: 10.075}
	require.LessOrEqual(t, Haversine(center, place), 4.5)

	assert.True(t, covered(CoveringCells(center, 4.5), place))
}

func TestIndex_Near(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	require.True(t, idx.Insert(DetourCandidate{ID: "tunis-sousse", Start: tunis, End: sousse}))
	require.True(t, idx.Insert(DetourCandidate{ID: "paris-london", Start: paris, End: london}))
	require.False(t, idx.Insert(DetourCandidate{ID: "bad", Start: Point{Lat: 100}, End: sousse}))
	assert.Equal(t, 2, idx.Len())

	near := idx.Near(Point{Lat: 36.3, Lng: 10.4}, 5)
	require.Len(t, near, 1)
	assert.Equal(t, "tunis-sousse", near[0].ID)

	assert.Empty(t, idx.Near(Point{Lat: -33.9, Lng: 151.2}, 50))
}

func TestIndex_NearAcrossAntimeridian(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	require.True(t, idx.Insert(DetourCandidate{
		ID:    "fiji-west",
		Start: Point{Lat: -17.0, Lng: -179.99},
		End:   Point{Lat: -17.5, Lng: -179.95},
	}))

	near := idx.Near(Point{Lat: -17.2, Lng: 179.99}, 10)
	require.Len(t, near, 1)
	assert.Equal(t, "fiji-west", near[0].ID)
}

func indexes(stops []Stop) []int {
	out := make([]int, len(stops))
	for i, s := range stops {
		out[i] = s.Index
	}
	return out
}

func ids(ranked []RankedDetour) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.ID
	}
	return out
}
