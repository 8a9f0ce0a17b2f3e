package geo

// StopKind identifies the role of a point in a trip sequence.
type StopKind string

const (
	StopStart    StopKind = "START"
	StopWaypoint StopKind = "WAYPOINT"
	StopPickup   StopKind = "PICKUP"
	StopDropoff  StopKind = "DROPOFF"
	StopEnd      StopKind = "END"
)

// Stop is one point of an ordered trip sequence.
type Stop struct {
	Kind      StopKind `json:"kind"`
	Point     Point    `json:"point"`
	RequestID string   `json:"request_id,omitempty"`
	// Index is the position in the waypoint or passenger input, -1 for START and END.
	Index int `json:"index"`
}

// Passenger is a pickup/dropoff pair that must be visited in that order.
type Passenger struct {
	RequestID string `json:"request_id"`
	Pickup    Point  `json:"pickup"`
	Dropoff   Point  `json:"dropoff"`
}

// OrderStops sequences a driver's trip with a greedy nearest-neighbour walk.
//
// From the current position the closest reachable stop is taken next, where
// reachable means any unvisited waypoint, any unvisited pickup, or a dropoff
// whose pickup was already visited. Equal distances keep input order:
// waypoints first, then pickups, then dropoffs. The result always begins with
// START and ends with END.
func OrderStops(start, end Point, waypoints []Point, passengers []Passenger) []Stop {
	stops := make([]Stop, 0, len(waypoints)+2*len(passengers)+2)
	stops = append(stops, Stop{Kind: StopStart, Point: start, Index: -1})

	waypointDone := make([]bool, len(waypoints))
	pickedUp := make([]bool, len(passengers))
	droppedOff := make([]bool, len(passengers))

	current := start
	for remaining := len(waypoints) + 2*len(passengers); remaining > 0; remaining-- {
		var next Stop
		found := false
		bestDist := 0.0

		consider := func(s Stop) {
			d := Haversine(current, s.Point)
			if !found || d < bestDist {
				next, bestDist, found = s, d, true
			}
		}

		for i, wp := range waypoints {
			if !waypointDone[i] {
				consider(Stop{Kind: StopWaypoint, Point: wp, Index: i})
			}
		}
		for i, p := range passengers {
			if !pickedUp[i] {
				consider(Stop{Kind: StopPickup, Point: p.Pickup, RequestID: p.RequestID, Index: i})
			}
		}
		for i, p := range passengers {
			if pickedUp[i] && !droppedOff[i] {
				consider(Stop{Kind: StopDropoff, Point: p.Dropoff, RequestID: p.RequestID, Index: i})
			}
		}

		switch next.Kind {
		case StopWaypoint:
			waypointDone[next.Index] = true
		case StopPickup:
			pickedUp[next.Index] = true
		case StopDropoff:
			droppedOff[next.Index] = true
		}

		stops = append(stops, next)
		current = next.Point
	}

	return append(stops, Stop{Kind: StopEnd, Point: end, Index: -1})
}

// Polyline returns the coordinates of a stop sequence.
func Polyline(stops []Stop) []Point {
	points := make([]Point, len(stops))
	for i, s := range stops {
		points[i] = s.Point
	}
	return points
}
