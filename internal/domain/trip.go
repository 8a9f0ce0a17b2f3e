package domain

import (
	"time"

	"rideshare/internal/geo"
)

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusScheduled TripStatus = "SCHEDULED"
	TripStatusStarted   TripStatus = "STARTED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// DateLayout is the format of trip dates.
const DateLayout = "2006-01-02"

// Trip is one dated run of a driver route.
type Trip struct {
	ID             string
	RouteID        string
	DriverID       string
	Date           time.Time // UTC midnight
	Start          geo.Point
	End            geo.Point
	Waypoints      []geo.Point
	DepartureTime  string
	Price          float64 // per seat
	SeatsTotal     int
	SeatsAvailable int
	Status         TripStatus
	StartedAt      time.Time
	EndedAt        time.Time
	CreatedAt      time.Time
}

// Path returns start, waypoints and end in travel order.
func (t *Trip) Path() []geo.Point {
	path := make([]geo.Point, 0, len(t.Waypoints)+2)
	path = append(path, t.Start)
	path = append(path, t.Waypoints...)
	return append(path, t.End)
}

// CanTransition reports whether the trip may move to status next.
func (t *Trip) CanTransition(next TripStatus) bool {
	switch next {
	case TripStatusStarted:
		return t.Status == TripStatusScheduled
	case TripStatusCompleted:
		return t.Status == TripStatusStarted
	case TripStatusCancelled:
		return t.Status == TripStatusScheduled || t.Status == TripStatusStarted
	}
	return false
}

// TruncateDate reduces t to its UTC calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
