package domain

import (
	"time"

	"rideshare/internal/geo"
)

// DefaultPlaceLabel is used when a place is saved without a label.
const DefaultPlaceLabel = "Place"

// SavedPlace is a user's bookmarked location.
type SavedPlace struct {
	ID        string
	UserID    string
	Label     string
	Address   string
	Point     geo.Point
	Geohash   string
	CreatedAt time.Time
}
