package domain

import "time"

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is one participant's score of another after a completed trip.
type Rating struct {
	ID        string
	TripID    string
	RaterID   string
	RateeID   string
	Score     int
	Comment   string
	CreatedAt time.Time
}

// RatingSummary aggregates the ratings a user received.
type RatingSummary struct {
	UserID  string
	Count   int
	Average float64
}
