package geo

import (
	"cmp"
	"math"
	"slices"
)

// DetourCandidate is a driver path a passenger could be inserted into.
type DetourCandidate struct {
	ID        string  `json:"id"`
	Start     Point   `json:"start"`
	End       Point   `json:"end"`
	Waypoints []Point `json:"waypoints,omitempty"`
}

// Path returns start, waypoints and end as one slice.
func (c DetourCandidate) Path() []Point {
	path := make([]Point, 0, len(c.Waypoints)+2)
	path = append(path, c.Start)
	path = append(path, c.Waypoints...)
	return append(path, c.End)
}

// RankedDetour is the detour cost of one candidate.
type RankedDetour struct {
	ID       string  `json:"id"`
	DetourKm float64 `json:"detour_km"`
	BaseKm   float64 `json:"base_km"`
}

// DetourKm is the extra distance a driver going start->end covers when
// picking up at pickup and dropping off at dropoff on the way.
func DetourKm(start, end, pickup, dropoff Point) float64 {
	extra := Haversine(start, pickup) + Haversine(pickup, dropoff) + Haversine(dropoff, end) -
		Haversine(start, end)
	return math.Max(0, extra)
}

// InsertionDetourKm returns the cheapest extra distance of inserting pickup
// and then dropoff into path. Pickup goes into leg i, dropoff into leg j >= i.
func InsertionDetourKm(path []Point, pickup, dropoff Point) float64 {
	switch len(path) {
	case 0:
		return Haversine(pickup, dropoff)
	case 1:
		return Haversine(path[0], pickup) + Haversine(pickup, dropoff) + Haversine(dropoff, path[0])
	}

	legs := len(path) - 1
	best := math.Inf(1)
	for i := 0; i < legs; i++ {
		a, b := path[i], path[i+1]
		base := Haversine(a, b)

		// Both stops inside the same leg.
		same := Haversine(a, pickup) + Haversine(pickup, dropoff) + Haversine(dropoff, b) - base
		best = math.Min(best, same)

		pickupCost := Haversine(a, pickup) + Haversine(pickup, b) - base
		for j := i + 1; j < legs; j++ {
			c, d := path[j], path[j+1]
			dropoffCost := Haversine(c, dropoff) + Haversine(dropoff, d) - Haversine(c, d)
			best = math.Min(best, pickupCost+dropoffCost)
		}
	}

	return math.Max(0, best)
}

// RankByDetour computes the detour of each candidate and returns them
// cheapest first. Candidates above maxDetourKm are dropped when maxDetourKm > 0.
func RankByDetour(candidates []DetourCandidate, pickup, dropoff Point, maxDetourKm float64) []RankedDetour {
	ranked := make([]RankedDetour, 0, len(candidates))
	for _, c := range candidates {
		path := c.Path()
		detour := InsertionDetourKm(path, pickup, dropoff)
		if maxDetourKm > 0 && detour > maxDetourKm {
			continue
		}
		ranked = append(ranked, RankedDetour{
			ID:       c.ID,
			DetourKm: detour,
			BaseKm:   PathLength(path),
		})
	}

	slices.SortFunc(ranked, func(a, b RankedDetour) int {
		if c := cmp.Compare(a.DetourKm, b.DetourKm); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return ranked
}
