package domain

import (
	"slices"
	"time"

	"rideshare/internal/geo"
)

// RouteKind tells whether a route is offered by a driver or wanted by a client.
type RouteKind string

const (
	RouteKindDriver RouteKind = "DRIVER"
	RouteKindClient RouteKind = "CLIENT"
)

// DepartureTimeLayout is the wall-clock format of departure times.
const DepartureTimeLayout = "15:04"

// Route is a recurring journey on a set of weekdays.
type Route struct {
	ID            string
	OwnerID       string
	Kind          RouteKind
	Start         geo.Point
	End           geo.Point
	StartLabel    string
	EndLabel      string
	Waypoints     []geo.Point
	Days          []time.Weekday
	DepartureTime string // HH:MM
	Price         float64
	Seats         int
	Active        bool
	CreatedAt     time.Time
}

// Path returns start, waypoints and end in travel order.
func (r *Route) Path() []geo.Point {
	path := make([]geo.Point, 0, len(r.Waypoints)+2)
	path = append(path, r.Start)
	path = append(path, r.Waypoints...)
	return append(path, r.End)
}

// RunsOn reports whether the route is scheduled on day.
func (r *Route) RunsOn(day time.Weekday) bool {
	return slices.Contains(r.Days, day)
}
